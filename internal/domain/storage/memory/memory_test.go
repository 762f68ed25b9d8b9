package memory_test

import (
	"testing"

	"travelmate/internal/domain/storage"
	"travelmate/internal/domain/storage/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, storage.NewMemoryContainer())
}
