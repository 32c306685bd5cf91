package counters_test

import (
	"sort"
	"sync"
	"testing"

	"github.com/dalemusser/rosterhub/internal/app/store/counters"
	"github.com/dalemusser/rosterhub/internal/testutil"
)

func TestFormatOfficerID(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{1, "AGID0001"},
		{42, "AGID0042"},
		{9999, "AGID9999"},
		{10000, "AGID10000"}, // width is a minimum, not a cap
	}
	for _, tt := range tests {
		if got := counters.FormatOfficerID(tt.n); got != tt.want {
			t.Errorf("FormatOfficerID(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestStore_AllocateSequential(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := counters.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 1; i <= 3; i++ {
		got, err := store.AllocateOfficerID(ctx)
		if err != nil {
			t.Fatalf("allocate %d failed: %v", i, err)
		}
		want := counters.FormatOfficerID(int64(i))
		if got != want {
			t.Errorf("allocation %d = %q, want %q", i, got, want)
		}
	}

	cur, err := store.Current(ctx)
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if cur != 3 {
		t.Errorf("Current = %d, want 3", cur)
	}
}

func TestStore_AllocateConcurrentUnique(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := counters.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	const n = 50
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ids  []string
		errs []error
	)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			id, err := store.AllocateOfficerID(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			ids = append(ids, id)
		}()
	}
	wg.Wait()

	if len(errs) > 0 {
		t.Fatalf("allocations failed: %v", errs[0])
	}
	if len(ids) != n {
		t.Fatalf("got %d ids, want %d", len(ids), n)
	}

	// No duplicates, no gaps: exactly AGID0001..AGID0050.
	sort.Strings(ids)
	for i := 0; i < n; i++ {
		want := counters.FormatOfficerID(int64(i + 1))
		if ids[i] != want {
			t.Fatalf("ids[%d] = %q, want %q (sorted set must be exactly 1..%d)", i, ids[i], want, n)
		}
	}
}
