package assetstore_test

import (
	"testing"

	"github.com/alnah/go-printables/assetstore"
	"github.com/alnah/go-printables/assetstore/storetest"
)

func TestMemoryRecords(t *testing.T) {
	t.Parallel()

	storetest.RecordStores(t, func(*testing.T) assetstore.RecordStore {
		return assetstore.NewMemoryRecords()
	})
}
