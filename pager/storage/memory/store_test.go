package memory

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/m3rciful/pager/pager/storage"
	"github.com/m3rciful/pager/pager/storage/storagetest"
)

func TestStoreSuite(t *testing.T) {
	suite.Run(t, &storagetest.StoreSuite{NewStore: func() storage.Store { return New() }})
}
