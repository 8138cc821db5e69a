package devops

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/mcp-azure-devops/internal/auth"
	"github.com/giantswarm/mcp-azure-devops/internal/useragent"
)

func TestClientGet_DecodesAndSetsAPIVersion(t *testing.T) {
	server := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"count":1,"value":[{"name":"Fabrikam"}]}`))
	})
	client, err := newTestFactory(t, server.URL+"/contoso", auth.PAT, staticTokens("pat"), useragent.New("1")).Build(context.Background())
	require.NoError(t, err)

	var out struct {
		Count int `json:"count"`
		Value []struct {
			Name string `json:"name"`
		} `json:"value"`
	}
	err = client.Get(context.Background(), "_apis/projects", url.Values{"$top": {"5"}}, &out)
	require.NoError(t, err)

	assert.Equal(t, 1, out.Count)
	assert.Equal(t, "Fabrikam", out.Value[0].Name)

	req := server.last()
	assert.Equal(t, "/contoso/_apis/projects", req.Path)
	q, err := url.ParseQuery(req.Query)
	require.NoError(t, err)
	assert.Equal(t, APIVersion, q.Get("api-version"))
	assert.Equal(t, "5", q.Get("$top"))
	assert.NotEmpty(t, req.Session)
}

func TestClientGet_EscapedProjectPath(t *testing.T) {
	server := newRecordingServer(t, nil)
	client, err := newTestFactory(t, server.URL+"/contoso", auth.PAT, staticTokens("pat"), useragent.New("1")).Build(context.Background())
	require.NoError(t, err)

	require.NoError(t, client.Get(context.Background(), url.PathEscape("My Project")+"/_apis/git/repositories", nil, nil))
	assert.Equal(t, "/contoso/My Project/_apis/git/repositories", server.last().Path)
}

func TestClientGet_APIError(t *testing.T) {
	server := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"TF200016: The project does not exist.","typeKey":"ProjectDoesNotExistException"}`))
	})
	client, err := newTestFactory(t, server.URL+"/contoso", auth.PAT, staticTokens("pat"), useragent.New("1")).Build(context.Background())
	require.NoError(t, err)

	err = client.Get(context.Background(), "missing/_apis/wiki/wikis", nil, nil)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "TF200016: The project does not exist.", apiErr.Message)
	assert.Equal(t, 1, server.count(), "4xx responses are not retried")
}

func TestClientGet_SignInPageIsAnError(t *testing.T) {
	server := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusNonAuthoritativeInfo)
		_, _ = w.Write([]byte("<html>sign in</html>"))
	})
	client, err := newTestFactory(t, server.URL+"/contoso", auth.PAT, staticTokens("bad"), useragent.New("1")).Build(context.Background())
	require.NoError(t, err)

	err = client.Get(context.Background(), "_apis/projects", nil, &struct{}{})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNonAuthoritativeInfo, apiErr.StatusCode)
}

func TestClientGet_RetriesServerErrors(t *testing.T) {
	attempts := 0
	server := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"id":7}`))
	})
	client, err := newTestFactory(t, server.URL+"/contoso", auth.PAT, staticTokens("pat"), useragent.New("1")).Build(context.Background())
	require.NoError(t, err)

	var out struct {
		ID int `json:"id"`
	}
	require.NoError(t, client.Get(context.Background(), "_apis/build/builds/7", nil, &out))
	assert.Equal(t, 7, out.ID)
	assert.Equal(t, 3, server.count())
}

func TestClientPost_SendsJSONBody(t *testing.T) {
	var gotContentType string
	var gotMethod string
	server := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotMethod = r.Method
		_, _ = w.Write([]byte(`{"workItems":[]}`))
	})
	client, err := newTestFactory(t, server.URL+"/contoso", auth.PAT, staticTokens("pat"), useragent.New("1")).Build(context.Background())
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, client.Post(context.Background(), "proj/_apis/wit/wiql", nil, map[string]string{"query": "SELECT [System.Id] FROM WorkItems"}, &out))
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotContentType)
}

func TestClientServiceURL(t *testing.T) {
	factory := newTestFactory(t, "https://dev.azure.com/contoso", auth.PAT, staticTokens("pat"), useragent.New("1"))
	client, err := factory.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "https://almsearch.dev.azure.com/contoso/proj/_apis/search/codesearchresults",
		client.ServiceURL("almsearch", "proj/_apis/search/codesearchresults").String())

	onPrem := newTestFactory(t, "https://tfs.example.com/DefaultCollection", auth.PAT, staticTokens("pat"), useragent.New("1"))
	client, err = onPrem.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://tfs.example.com/DefaultCollection/proj/_apis/search/codesearchresults",
		client.ServiceURL("almsearch", "proj/_apis/search/codesearchresults").String())
}
