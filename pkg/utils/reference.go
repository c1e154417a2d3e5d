package utils

import (
	"fmt"

	"github.com/distribution/reference"
	"github.com/google/go-containerregistry/pkg/name"
)

// NormalizeImageRef expands a short image reference into the fully qualified
// form the analysis service records, e.g. "alpine" becomes
// "docker.io/library/alpine:latest". Digest references are kept as they are.
func NormalizeImageRef(imageRef string) (string, error) {
	named, err := reference.ParseNormalizedNamed(imageRef)
	if err != nil {
		return "", fmt.Errorf("parsing reference %q: %w", imageRef, err)
	}
	return reference.TagNameOnly(named).String(), nil
}

// ImageFields returns registry and repository of imageRef for log fields.
func ImageFields(imageRef string) (registry, repository string, err error) {
	ref, err := name.ParseReference(imageRef)
	if err != nil {
		return "", "", fmt.Errorf("parsing reference %q: %w", imageRef, err)
	}
	return ref.Context().RegistryStr(), ref.Context().RepositoryStr(), nil
}
