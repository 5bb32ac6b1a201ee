package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVIN = "1FTFW1ET1EFA00001"

func setCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("CHROMEDATA_APP_ID", "app-1")
	t.Setenv("CHROMEDATA_APP_SECRET", "secret")
	t.Setenv("CHROMEDATA_REALM", "http://communitymanager")
	t.Setenv("CHROMEDATA_AUTH_SCHEME", "Atmosphere")
}

func fakeProvider(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/vin/"+testVIN) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":{
			"validVin": true,
			"year": "2014",
			"make": "Ford",
			"model": "F-150",
			"vehicles": [{"trim": "XL", "styleId": "123"}],
			"exteriorColors": [{"genericDesc": "Red", "rgbHexValue": "#FF0000"}]
		}}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSignCommand(t *testing.T) {
	setCredentials(t)

	out, err := execute(t, "sign", "--nonce", "pkWMcJGrsMjcyLaTCwekao", "--timestamp", "1700000000000")
	require.NoError(t, err)
	assert.Equal(t,
		`Atmosphere realm="http://communitymanager",chromedata_app_id="app-1",chromedata_nonce="pkWMcJGrsMjcyLaTCwekao",chromedata_secret_digest="XZ52HQmXz4s3LSoWugCXnNJtke4=",chromedata_digest_method="SHA1",chromedata_version="1.0",chromedata_timestamp="1700000000000"`+"\n",
		out,
	)
}

func TestSignCommand_MissingCredentials(t *testing.T) {
	t.Setenv("CHROMEDATA_APP_ID", "")
	t.Setenv("CHROMEDATA_APP_SECRET", "")

	_, err := execute(t, "sign")
	assert.Error(t, err)
}

func TestLookupCommand(t *testing.T) {
	setCredentials(t)
	server := fakeProvider(t)

	out, err := execute(t, "lookup", strings.ToLower(testVIN), "--base-url", server.URL)
	require.NoError(t, err)

	var details map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &details))
	assert.Equal(t, testVIN, details["vin"])
	assert.Equal(t, "Ford", details["make"])
	assert.Equal(t, float64(2014), details["year"])
	assert.Equal(t, "#FF0000", details["colorHex"])
}

func TestLookupCommand_Errors(t *testing.T) {
	setCredentials(t)
	server := fakeProvider(t)

	_, err := execute(t, "lookup", "BAD", "--base-url", server.URL)
	assert.Error(t, err)

	_, err = execute(t, "lookup", "2HGFA16507H000000", "--base-url", server.URL)
	assert.Error(t, err)

	_, err = execute(t, "lookup")
	assert.Error(t, err, "vin argument is required")
}

func TestReportCommand(t *testing.T) {
	setCredentials(t)
	server := fakeProvider(t)
	path := filepath.Join(t.TempDir(), "ford.pdf")

	out, err := execute(t, "report", testVIN, "-o", path, "--base-url", server.URL)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}
