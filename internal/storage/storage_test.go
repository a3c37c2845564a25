// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/pdiddy/paperforge/pkg/types"
)

func TestLocalStore_Put(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paper.docx")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	uri, err := LocalStore{}.Put(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(uri))
	assert.Equal(t, "paper.docx", filepath.Base(uri))

	_, err = LocalStore{}.Put(context.Background(), filepath.Join(t.TempDir(), "missing.docx"))
	assert.Error(t, err)
}

func TestObjectName(t *testing.T) {
	tests := []struct {
		prefix, path, want string
	}{
		{"", "output/a.docx", "a.docx"},
		{"papers", "output/a.docx", "papers/a.docx"},
		{"/papers/2026/", "a.docx", "papers/2026/a.docx"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ObjectName(tt.prefix, tt.path))
	}
}

func TestUploadError_MapsPreconditionFailure(t *testing.T) {
	err := uploadError("papers/a.docx", fmt.Errorf("closing writer: %w", &googleapi.Error{Code: 412, Message: "conditionNotMet"}))
	assert.ErrorIs(t, err, ErrExists)

	err = uploadError("papers/a.docx", &googleapi.Error{Code: 403, Message: "forbidden"})
	assert.False(t, errors.Is(err, ErrExists))
	assert.Contains(t, err.Error(), "papers/a.docx")
}

func TestNew_LocalWithoutBucket(t *testing.T) {
	s, err := New(context.Background(), types.StorageConfig{}, nil)
	require.NoError(t, err)
	assert.IsType(t, LocalStore{}, s)
}

func TestNewGCSStore_RequiresBucket(t *testing.T) {
	_, err := NewGCSStore(context.Background(), types.StorageConfig{}, nil)
	assert.Error(t, err)
}
