package intake

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/example/recognition-mock/internal/randsrc"
)

var namePattern = regexp.MustCompile(`^image-(\d+)-(\d+)\.jpg$`)

func TestNamerFormat(t *testing.T) {
	n := NewNamer(randsrc.NewSeeded(1))
	name := n.Next("image")

	m := namePattern.FindStringSubmatch(name)
	if m == nil {
		t.Fatalf("unexpected name format: %s", name)
	}
	suffix, _ := strconv.Atoi(m[2])
	if suffix < 0 || suffix >= suffixRange {
		t.Fatalf("suffix out of range: %d", suffix)
	}
}

func TestNamerTimestampStrictlyIncreasesWhenClockStalls(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	n := NewNamer(randsrc.NewSeeded(1))
	n.now = func() time.Time { return fixed }

	var prev int64
	for i := 0; i < 5; i++ {
		m := namePattern.FindStringSubmatch(n.Next("image"))
		ts, _ := strconv.ParseInt(m[1], 10, 64)
		if i == 0 && ts != fixed.UnixMilli() {
			t.Fatalf("expected first timestamp %d, got %d", fixed.UnixMilli(), ts)
		}
		if i > 0 && ts != prev+1 {
			t.Fatalf("expected timestamp %d, got %d", prev+1, ts)
		}
		prev = ts
	}
}

func TestNamerConcurrentNamesAreDistinct(t *testing.T) {
	n := NewNamer(randsrc.Global())

	const workers, perWorker = 16, 200
	names := make(chan string, workers*perWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				names <- n.Next("image")
			}
		}()
	}
	wg.Wait()
	close(names)

	seen := make(map[string]struct{}, workers*perWorker)
	for name := range names {
		if !strings.HasSuffix(name, ".jpg") {
			t.Fatalf("unexpected extension: %s", name)
		}
		if _, dup := seen[name]; dup {
			t.Fatalf("duplicate name generated: %s", name)
		}
		seen[name] = struct{}{}
	}
}
