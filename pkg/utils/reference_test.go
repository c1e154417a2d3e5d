package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeImageRef(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"short name", "alpine", "docker.io/library/alpine:latest", false},
		{"short name with tag", "alpine:3.19", "docker.io/library/alpine:3.19", false},
		{"user repo", "anchore/engine:v1.0.0", "docker.io/anchore/engine:v1.0.0", false},
		{"other registry", "ghcr.io/project-copacetic/copacetic:v0.10.0", "ghcr.io/project-copacetic/copacetic:v0.10.0", false},
		{"registry with port", "localhost:5000/app", "localhost:5000/app:latest", false},
		{
			"digest kept",
			"alpine@sha256:02892826401a9d18f0ea01f8a2f35d328ef039db4e1edcc45c630314a0457d5b",
			"docker.io/library/alpine@sha256:02892826401a9d18f0ea01f8a2f35d328ef039db4e1edcc45c630314a0457d5b",
			false,
		},
		{"uppercase", "Alpine", "", true},
		{"empty", "", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeImageRef(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestImageFields(t *testing.T) {
	registry, repository, err := ImageFields("docker.io/library/alpine:3.19")
	require.NoError(t, err)
	assert.Equal(t, "index.docker.io", registry)
	assert.Equal(t, "library/alpine", repository)

	registry, repository, err = ImageFields("ghcr.io/project-copacetic/copacetic:v0.10.0")
	require.NoError(t, err)
	assert.Equal(t, "ghcr.io", registry)
	assert.Equal(t, "project-copacetic/copacetic", repository)

	_, _, err = ImageFields("not a reference")
	assert.Error(t, err)
}
