package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// mining bundles the tunables of a nonce search.
type mining struct {
	workers     int
	maxAttempts uint64
}

type mineOption func(mining) mining

// WithWorkers runs the nonce search on n goroutines. Worker k scans the
// nonces k, k+n, k+2n and so on; the first valid nonce wins. Values below 2
// keep the search sequential.
func WithWorkers(n int) mineOption {
	return func(m mining) mining {
		m.workers = n
		return m
	}
}

// WithMaxAttempts caps the total number of nonces tried before the search
// gives up with ErrMiningTimeout. Zero means no cap.
func WithMaxAttempts(n uint64) mineOption {
	return func(m mining) mining {
		m.maxAttempts = n
		return m
	}
}

// MeetsDifficulty reports whether hash starts with at least difficulty zero
// hex digits.
func MeetsDifficulty(hash string, difficulty int) bool {
	if difficulty <= 0 {
		return true
	}
	if difficulty > len(hash) {
		return false
	}
	return strings.HasPrefix(hash, strings.Repeat("0", difficulty))
}

// Mine searches for a nonce that makes the block's hash satisfy its recorded
// difficulty and returns the nonce together with the winning hash. The block
// is taken by value and never modified; all other fields are treated as
// fixed, so repeating a sequential search over the same block yields the same
// nonce. Cancelling the context stops the search.
func Mine(ctx context.Context, block Block, opts ...mineOption) (uint64, string, error) {
	cfg := mining{workers: 1}
	for _, opt := range opts {
		cfg = opt(cfg)
	}

	if cfg.workers > 1 {
		return mineParallel(ctx, block, cfg)
	}
	return mineSequential(ctx, block, cfg.maxAttempts)
}

func mineSequential(ctx context.Context, block Block, maxAttempts uint64) (uint64, string, error) {
	prefix := strings.Repeat("0", block.Difficulty)
	attempts := uint64(0)

	for nonce := uint64(0); ; nonce++ {
		select {
		case <-ctx.Done():
			return 0, "", fmt.Errorf("mining cancelled: %w", ctx.Err())
		default:
		}

		block.Nonce = nonce
		hash := block.ComputeHash()
		if strings.HasPrefix(hash, prefix) {
			return nonce, hash, nil
		}

		attempts++
		if maxAttempts > 0 && attempts >= maxAttempts {
			return 0, "", fmt.Errorf("%w after %d attempts", ErrMiningTimeout, attempts)
		}
	}
}

// mineParallel stripes the nonce space across the workers and races them to
// the first valid nonce. Which worker wins can differ between runs, but the
// returned pair always satisfies the difficulty, so verification does not
// depend on the schedule. A configured attempt cap is split evenly.
func mineParallel(ctx context.Context, block Block, cfg mining) (uint64, string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type solution struct {
		nonce uint64
		hash  string
	}

	found := make(chan solution, cfg.workers)
	var wg sync.WaitGroup

	stride := uint64(cfg.workers)
	perWorker := uint64(0)
	if cfg.maxAttempts > 0 {
		perWorker = (cfg.maxAttempts + stride - 1) / stride
	}

	for k := uint64(0); k < stride; k++ {
		wg.Add(1)
		go func(start uint64) {
			defer wg.Done()

			candidate := block
			prefix := strings.Repeat("0", candidate.Difficulty)
			attempts := uint64(0)

			for nonce := start; ; nonce += stride {
				select {
				case <-ctx.Done():
					return
				default:
				}

				candidate.Nonce = nonce
				hash := candidate.ComputeHash()
				if strings.HasPrefix(hash, prefix) {
					found <- solution{nonce: nonce, hash: hash}
					return
				}

				attempts++
				if perWorker > 0 && attempts >= perWorker {
					return
				}
			}
		}(k)
	}

	go func() {
		wg.Wait()
		close(found)
	}()

	sol, ok := <-found
	if !ok {
		if ctx.Err() != nil {
			return 0, "", fmt.Errorf("mining cancelled: %w", ctx.Err())
		}
		return 0, "", fmt.Errorf("%w after %d attempts", ErrMiningTimeout, cfg.maxAttempts)
	}
	return sol.nonce, sol.hash, nil
}
