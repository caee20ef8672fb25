package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	base := stderrors.New("boom")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"catalog", Catalog("parse album date", base), KindCatalog},
		{"auth", Auth("login", base), KindAuth},
		{"download", Download("https://example.com/a.jpg", 404, nil), KindDownload},
		{"wrapped", fmt.Errorf("album failed: %w", Download("u", 500, nil)), KindDownload},
		{"plain", base, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := Download("https://example.com/img/1", 503, nil)
	assert.Equal(t, "download error during download (https://example.com/img/1) [status 503]", err.Error())

	err = Catalog("parse album counter", stderrors.New(`strconv.Atoi: parsing "x": invalid syntax`))
	assert.Contains(t, err.Error(), "catalog error during parse album counter")
	assert.Contains(t, err.Error(), "invalid syntax")
}

func TestUnwrap(t *testing.T) {
	base := stderrors.New("disk full")
	err := Storage("write image", base)
	assert.True(t, stderrors.Is(err, base))
}

func TestIsSuccessStatus(t *testing.T) {
	assert.True(t, IsSuccessStatus(200))
	assert.True(t, IsSuccessStatus(204))
	assert.False(t, IsSuccessStatus(304))
	assert.False(t, IsSuccessStatus(404))
	assert.False(t, IsSuccessStatus(500))
	assert.False(t, IsSuccessStatus(0))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 3, ExitCode(Auth("login", nil)))
	assert.Equal(t, 4, ExitCode(Catalog("parse", nil)))
	assert.Equal(t, 5, ExitCode(Download("u", 500, nil)))
	assert.Equal(t, 1, ExitCode(stderrors.New("other")))
}
