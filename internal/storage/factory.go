package storage

import (
	"fmt"

	"github.com/elbowspeak/nas-file-categorizer/internal/storage/local"
	"github.com/elbowspeak/nas-file-categorizer/internal/storage/s3"
)

// NewBackend constructs a Backend of the given type. localCfg is used for
// "local", s3Cfg for "s3".
func NewBackend(backendType string, localCfg local.Config, s3Cfg s3.Config) (Backend, error) {
	switch backendType {
	case "local":
		return local.New(localCfg)
	case "s3":
		return s3.New(s3Cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend type: %s", backendType)
	}
}
