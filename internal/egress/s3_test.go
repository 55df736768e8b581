package egress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// NewS3Backend's credential/bucket validation runs before any network call,
// so it's safe to exercise without a reachable AWS endpoint.

func TestNewS3BackendRejectsMissingBucket(t *testing.T) {
	_, err := NewS3Backend(S3Config{AccessKey: "a", SecretKey: "b"})
	assert.Error(t, err)
}

func TestNewS3BackendRejectsMissingCredentials(t *testing.T) {
	_, err := NewS3Backend(S3Config{Bucket: "strip-snapshots"})
	assert.Error(t, err)
}

func TestKeyPrefixAppendsSlashOnlyWhenSet(t *testing.T) {
	assert.Equal(t, "", keyPrefix(""))
	assert.Equal(t, "snapshots/", keyPrefix("snapshots"))
}
