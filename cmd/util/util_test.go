package util

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logrusTest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/hoist/pkg/config"
	"github.com/sidkik/hoist/pkg/dispatch"
	"github.com/sidkik/hoist/pkg/errors"
)

func TestInput(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		def      string
		validate func(string) error
		exp      string
		expOut   string
	}{
		{
			name:   "Answer",
			in:     "npm ci\n",
			def:    "npm install",
			exp:    "npm ci",
			expOut: "Install command (npm install): ",
		},
		{
			name:   "Default",
			in:     "\n",
			def:    "npm install",
			exp:    "npm install",
			expOut: "Install command (npm install): ",
		},
		{
			name: "Retry",
			in:   "eighty\n8080\n",
			validate: func(s string) error {
				if _, err := strconv.Atoi(s); err != nil {
					return errors.NewFriendlyError("Port must be a number")
				}
				return nil
			},
			exp: "8080",
			expOut: "Install command: Port must be a number\n" +
				"Install command: ",
		},
		{
			name:   "NoTrailingNewline",
			in:     "yarn",
			exp:    "yarn",
			expOut: "Install command: ",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompter(strings.NewReader(test.in), &out)
			resp, err := p.Input("Install command", test.def, test.validate)
			require.NoError(t, err)
			assert.Equal(t, test.exp, resp)
			assert.Equal(t, test.expOut, out.String())
		})
	}
}

func TestInputEOF(t *testing.T) {
	p := NewPrompter(strings.NewReader(""), &bytes.Buffer{})
	_, err := p.Input("Name", "", nil)
	assert.Error(t, err)
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		in  string
		def bool
		exp bool
	}{
		{"y\n", false, true},
		{"YES\n", false, true},
		{"n\n", true, false},
		{"\n", true, true},
		{"\n", false, false},
		{"maybe\nno\n", true, false},
	}

	for _, test := range tests {
		p := NewPrompter(strings.NewReader(test.in), &bytes.Buffer{})
		resp, err := p.Confirm("Add another service?", test.def)
		assert.NoError(t, err, test.in)
		assert.Equal(t, test.exp, resp, test.in)
	}
}

func TestSelect(t *testing.T) {
	options := []string{"small", "medium", "large"}
	tests := []struct {
		name string
		in   string
		def  int
		exp  int
	}{
		{"Choice", "3\n", 1, 2},
		{"Default", "\n", 1, 1},
		{"InvalidThenValid", "0\nfour\n1\n", 1, 0},
		{"OutOfRangeDefault", "\n", 7, 0},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompter(strings.NewReader(test.in), &out)
			choice, err := p.Select("Select size", options, test.def)
			require.NoError(t, err)
			assert.Equal(t, test.exp, choice)
			assert.Contains(t, out.String(), "(recommended)")
		})
	}

	_, err := NewPrompter(strings.NewReader("1\n"), &bytes.Buffer{}).Select("Empty", nil, 0)
	assert.Error(t, err)
}

func TestSelectOutput(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("\n"), &out)
	_, err := p.Select("Select size", []string{"small", "medium"}, 1)
	require.NoError(t, err)
	assert.Equal(t, "Select size:\n\n"+
		"\t1. small\n"+
		"\t2. medium (recommended)\n\n"+
		"Please choose one [1-2]: ", out.String())
}

type nopConn struct{}

func (nopConn) Send(context.Context, []byte) error        { return nil }
func (nopConn) Receive(context.Context) ([]byte, error) { return nil, nil }
func (nopConn) Close() error                             { return nil }

func TestConnect(t *testing.T) {
	var dialedURL string
	var dialedHeader http.Header
	SetDialer(func(_ context.Context, url string, header http.Header) (dispatch.Conn, error) {
		dialedURL = url
		dialedHeader = header
		return nopConn{}, nil
	})

	logger, _ := logrusTest.NewNullLogger()
	d, err := Connect(context.Background(), config.User{
		Server: "ws://localhost:8080/ws",
		Token:  "secret",
		Lang:   "en",
	}, logger)
	require.NoError(t, err)
	assert.NotEmpty(t, d.ConnectionID())
	assert.Equal(t, "ws://localhost:8080/ws", dialedURL)
	assert.True(t, strings.HasPrefix(dialedHeader.Get("User-Agent"), "hoist/"))

	SetDialer(func(context.Context, string, http.Header) (dispatch.Conn, error) {
		return nil, assert.AnError
	})
	_, err = Connect(context.Background(), config.User{}, logger)
	assert.True(t, errors.Is(err, assert.AnError))
}

func TestHandleFatalError(t *testing.T) {
	var code int
	exit = func(c int) { code = c }
	defer func() { exit = os.Exit }()

	logrus.SetOutput(&bytes.Buffer{})
	HandleFatalError(errors.New("boom"))
	assert.Equal(t, 1, code)
}
