package memory

import (
	"testing"

	"github.com/bcnelson/erp-console/internal/storage/storagetest"
)

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, New())
}
