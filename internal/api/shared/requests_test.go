package shared

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decodeTarget struct {
	FileURL string `json:"fileUrl" validate:"required,url"`
	Full    bool   `json:"isFullAnalysis"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"fileUrl":"https://example.com/a.pdf","isFullAnalysis":true}`},
		{name: "trailing comma", body: `{"fileUrl":"x",}`, wantErr: true},
		{name: "empty body", body: "", wantErr: true},
		{name: "oversized body", body: `{"fileUrl":"` + strings.Repeat("a", MaxRequestBytes) + `"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/analysis", strings.NewReader(tt.body))
			var got decodeTarget
			err := DecodeJSON(req, &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "https://example.com/a.pdf", got.FileURL)
			assert.True(t, got.Full)
		})
	}
}

type selfValidating struct {
	Name string `validate:"required"`
}

func (s *selfValidating) Validate() error {
	if s.Name == "bad" {
		return errors.New("bad name")
	}
	return nil
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(&decodeTarget{FileURL: "https://example.com/a.pdf"}))
	assert.Error(t, ValidateRequest(&decodeTarget{FileURL: "not a url"}))
	assert.Error(t, ValidateRequest(&decodeTarget{}))

	// a Validate method takes precedence over struct tags
	assert.NoError(t, ValidateRequest(&selfValidating{}))
	assert.Error(t, ValidateRequest(&selfValidating{Name: "bad"}))
}
