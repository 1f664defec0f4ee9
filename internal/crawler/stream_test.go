package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/graph"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/graph/sparql"
)

func resultsDoc(values ...string) string {
	var b strings.Builder
	b.WriteString(`{"head":{"vars":["resource"]},"results":{"bindings":[`)
	for i, v := range values {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, `{"resource":{"type":"uri","value":%q}}`, v)
	}
	b.WriteString(`]}}`)
	return b.String()
}

// The seed's link stream stays open while its first child's subtree takes
// longer than the query timeout; every sibling after it must still be reached.
func TestCrawlOverSPARQLOutlivesQueryTimeout(t *testing.T) {
	const (
		timeout = 200 * time.Millisecond
		limit   = 300
	)
	links := make([]string, 20000)
	for i := range links {
		links[i] = fmt.Sprintf("%sPlace_%d", ns, i)
	}
	slowChildren := []string{ns + "Slow_A", ns + "Slow_B", ns + "Slow_C", ns + "Slow_D", ns + "Slow_E", ns + "Slow_F"}

	responses := map[string]string{
		graph.ResourceNeighborsQuery(greece, ns):   resultsDoc(links...),
		graph.ResourceNeighborsQuery(links[0], ns): resultsDoc(slowChildren...),
	}
	delayed := make(map[string]bool, len(slowChildren))
	for _, child := range slowChildren {
		delayed[graph.PersonNeighborsQuery(child)] = true
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		q := r.PostForm.Get("query")
		if delayed[q] {
			time.Sleep(timeout / 2)
		}
		body, ok := responses[q]
		if !ok {
			body = resultsDoc()
		}
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	port := sparql.NewClient(srv.URL, timeout)
	res := New(port, testConfig(limit)).Crawl(context.Background(), greece, 10, newSink())

	assert.Equal(t, limit, res.Branches)
	assert.Greater(t, res.Duration, timeout)
}
