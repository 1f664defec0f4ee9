package index

// Registry assigns dense document ids to entity URIs in first-seen order.
// Ids are never reused and every id below Len() maps back to exactly one URI.
type Registry struct {
	ids  map[string]uint32
	uris []string
}

func NewRegistry() *Registry {
	return &Registry{
		ids: make(map[string]uint32),
	}
}

// Register returns the id of uri, assigning Len() if it has not been seen.
func (r *Registry) Register(uri string) uint32 {
	if id, ok := r.ids[uri]; ok {
		return id
	}
	id := uint32(len(r.uris))
	r.ids[uri] = id
	r.uris = append(r.uris, uri)
	return id
}

func (r *Registry) Lookup(uri string) (uint32, bool) {
	id, ok := r.ids[uri]
	return id, ok
}

// URI is the inverse of Register.
func (r *Registry) URI(id uint32) (string, bool) {
	if int(id) >= len(r.uris) {
		return "", false
	}
	return r.uris[id], true
}

func (r *Registry) Len() int {
	return len(r.uris)
}
