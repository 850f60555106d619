package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/buscacep/internal/address"
)

// newRegistry serves 01310100 as found, 99999999 as not found and
// everything else as a 500.
func newRegistry(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/01310100/json/":
			_, _ = w.Write([]byte(`{"cep":"01310-100","logradouro":"Avenida Paulista","complemento":"","bairro":"Bela Vista","localidade":"São Paulo","uf":"SP"}`))
		case "/99999999/json/":
			_, _ = w.Write([]byte(`{"erro":true}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestLookup_Found(t *testing.T) {
	srv := newRegistry(t)

	stdout, _, err := execute(t, "", "lookup", "01310-100", "--base-url", srv.URL)

	require.NoError(t, err)
	assert.Equal(t, "CEP: 01310-100\nLogradouro: Avenida Paulista\nBairro: Bela Vista\nCidade: São Paulo\nEstado: SP\n", stdout)
}

func TestLookup_JSON(t *testing.T) {
	srv := newRegistry(t)

	stdout, _, err := execute(t, "", "lookup", "01310100", "--base-url", srv.URL, "--json")

	require.NoError(t, err)
	var got address.Address
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, "Avenida Paulista", got.Street)
}

func TestLookup_Failures(t *testing.T) {
	srv := newRegistry(t)

	tests := []struct {
		name   string
		code   string
		notice string
		is     error
	}{
		{"invalid", "123", address.NoticeInvalid, address.ErrInvalidCode},
		{"not found", "99999-999", address.NoticeNotFound, address.ErrNotFound},
		{"transport", "11111111", address.NoticeTransport, address.ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, err := execute(t, "", "lookup", tt.code, "--base-url", srv.URL)

			assert.ErrorIs(t, err, tt.is)
			assert.Empty(t, stdout)
			assert.Equal(t, tt.notice+"\n", stderr)
		})
	}
}

func TestLookup_FailureJSON(t *testing.T) {
	srv := newRegistry(t)

	stdout, _, err := execute(t, "", "lookup", "99999999", "--base-url", srv.URL, "--json")

	require.Error(t, err)
	var body jsonError
	require.NoError(t, json.Unmarshal([]byte(stdout), &body))
	assert.Equal(t, "not_found", body.Error.Code)
	assert.Equal(t, address.NoticeNotFound, body.Error.Message)
}

func TestLookup_RequiresArgument(t *testing.T) {
	_, _, err := execute(t, "", "lookup")
	assert.Error(t, err)
}

func TestInteractive(t *testing.T) {
	srv := newRegistry(t)
	stdin := "01310-100\n12\n99999999\nsair\n01310100\n"

	stdout, _, err := execute(t, stdin, "interactive", "--base-url", srv.URL)

	require.NoError(t, err)
	want := prompt + "Buscando...\n" +
		"CEP: 01310-100\nLogradouro: Avenida Paulista\nBairro: Bela Vista\nCidade: São Paulo\nEstado: SP\n" +
		prompt + address.NoticeInvalid + "\n" +
		prompt + "Buscando...\n" + address.NoticeNotFound + "\n" +
		prompt
	assert.Equal(t, want, stdout)
}

func TestInteractive_EOF(t *testing.T) {
	srv := newRegistry(t)

	stdout, _, err := execute(t, "", "interactive", "--base-url", srv.URL)

	require.NoError(t, err)
	assert.Equal(t, prompt+"\n", stdout)
}
