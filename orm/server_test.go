package orm_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mickamy/restorm/orm"
)

// recordedRequest is a request captured by testServer.
type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   string
}

// testServer is an httptest REST backend with per-path canned replies.
type testServer struct {
	*httptest.Server

	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []recordedRequest
}

func newServer(t *testing.T) *testServer {
	t.Helper()
	s := &testServer{routes: make(map[string]http.HandlerFunc)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func (s *testServer) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.requests = append(s.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   string(body),
	})
	h, ok := s.routes[r.Method+" "+r.URL.Path]
	if !ok {
		h, ok = s.routes[r.URL.Path]
	}
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	h(w, r)
}

// handle registers h for pattern, either "/path" or "METHOD /path".
func (s *testServer) handle(pattern string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[pattern] = h
}

// reply answers pattern with a JSON body.
func (s *testServer) reply(pattern, body string) {
	s.replyStatus(pattern, http.StatusOK, body)
}

func (s *testServer) replyStatus(pattern string, status int, body string) {
	s.handle(pattern, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=UTF-8")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

func (s *testServer) open(t *testing.T, opts ...orm.Option) *orm.Connection {
	t.Helper()
	conn, err := orm.Open(orm.Config{BaseURI: s.URL + "/"}, opts...)
	require.NoError(t, err)
	return conn
}

func (s *testServer) recorded() []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedRequest(nil), s.requests...)
}

func (s *testServer) requestCount() int {
	return len(s.recorded())
}

func (s *testServer) lastRequest() recordedRequest {
	reqs := s.recorded()
	if len(reqs) == 0 {
		return recordedRequest{}
	}
	return reqs[len(reqs)-1]
}

func (s *testServer) lastQuery() url.Values {
	return s.lastRequest().Query
}

// requestsTo returns the recorded requests for path, in order.
func (s *testServer) requestsTo(path string) []recordedRequest {
	var out []recordedRequest
	for _, r := range s.recorded() {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// fixtures is a small blog schema:
//
//	users 1─* posts 1─* comments
//	users 1─1 profiles
//	posts *─* tags through post_tags
//	users ─* comments via posts
type fixtures struct {
	users    *orm.Model
	profiles *orm.Model
	posts    *orm.Model
	comments *orm.Model
	tags     *orm.Model
	postTags *orm.Model
}

func newFixtures() fixtures {
	f := fixtures{
		users:    &orm.Model{Resource: "users", PrimaryKey: []string{"id"}},
		profiles: &orm.Model{Resource: "profiles", PrimaryKey: []string{"id"}},
		posts:    &orm.Model{Resource: "posts", PrimaryKey: []string{"id"}},
		comments: &orm.Model{Resource: "comments", PrimaryKey: []string{"id"}},
		tags:     &orm.Model{Resource: "tags", PrimaryKey: []string{"id"}},
		postTags: &orm.Model{Resource: "post_tags", PrimaryKey: []string{"post_id", "tag_id"}},
	}
	f.users.Relate(
		orm.HasMany("posts", f.posts, orm.Key("user_id", "id")),
		orm.HasOne("profile", f.profiles, orm.Key("user_id", "id")),
		orm.HasMany("comments", f.comments, orm.Key("post_id", "id")).Via("posts"),
	)
	f.posts.Relate(
		orm.BelongsTo("author", f.users, orm.Key("id", "user_id")),
		orm.HasMany("comments", f.comments, orm.Key("post_id", "id")),
		orm.HasMany("tags", f.tags, orm.Key("id", "tag_id")).ViaTable(f.postTags, orm.Key("post_id", "id")),
	)
	return f
}

func userModel() *orm.Model {
	return newFixtures().users
}
