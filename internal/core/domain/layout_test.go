package domain_test

import (
	"path/filepath"
	"testing"

	"go.trai.ch/accord/internal/core/domain"
)

func TestLayoutPaths(t *testing.T) {
	root := filepath.Join("repo", "root")
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{
			name:     "DefaultLockPath",
			got:      domain.DefaultLockPath(root),
			expected: filepath.Join(root, "accord.lock"),
		},
		{
			name:     "DefaultHistoryPath",
			got:      domain.DefaultHistoryPath(root),
			expected: filepath.Join(root, ".accord", "history.jsonl"),
		},
		{
			name:     "DefaultCatalogPath",
			got:      domain.DefaultCatalogPath(root),
			expected: filepath.Join(root, ".accord", "catalog.yaml"),
		},
		{
			name:     "DefaultAdvisoryPath",
			got:      domain.DefaultAdvisoryPath(root),
			expected: filepath.Join(root, ".accord", "advisories.yaml"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s() = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}
}
