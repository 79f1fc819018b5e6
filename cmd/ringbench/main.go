// Command ringbench drives a Ring or Pack with configurable producer and
// consumer goroutine counts and reports achieved throughput. It is glue
// around the ring/pack libraries, not part of their public API.
package main

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mpmcring/ring"
	"github.com/mpmcring/ring/internal/spin"
	"github.com/mpmcring/ring/pack"
)

var (
	capacity  uint64
	producers int
	consumers int
	duration  time.Duration
	stripes   uint64
	keepK     uint64
	usePack   bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ringbench",
		Short: "Benchmark the ring and pack MPMC queues",
		RunE:  runBench,
	}

	flags := root.PersistentFlags()
	flags.Uint64Var(&capacity, "capacity", 1024, "ring (or per-stripe) capacity, must be a power of two")
	flags.IntVar(&producers, "producers", 4, "number of producer goroutines")
	flags.IntVar(&consumers, "consumers", 4, "number of consumer goroutines")
	flags.DurationVar(&duration, "duration", 2*time.Second, "how long to run the benchmark")
	flags.Uint64Var(&stripes, "stripes", 1, "number of pack stripes (stripes=1 benchmarks a plain Ring)")
	flags.Uint64Var(&keepK, "k", 16, "pack: consecutive pops from a stripe before advancing to the next one (index+1 mod stripes)")

	viper.BindPFlags(flags)
	viper.SetEnvPrefix("RINGBENCH")
	viper.AutomaticEnv()

	return root
}

func runBench(cmd *cobra.Command, args []string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("ringbench: build logger: %w", err)
	}
	defer logger.Sync()

	capacity = viper.GetUint64("capacity")
	producers = viper.GetInt("producers")
	consumers = viper.GetInt("consumers")
	duration = viper.GetDuration("duration")
	stripes = viper.GetUint64("stripes")
	keepK = viper.GetUint64("k")

	logger.Info("starting benchmark",
		zap.Uint64("capacity", capacity),
		zap.Int("producers", producers),
		zap.Int("consumers", consumers),
		zap.Duration("duration", duration),
		zap.Uint64("stripes", stripes),
	)

	usePack = stripes > 1

	var pushed, popped atomic.Int64
	stop := make(chan struct{})

	var wg sync.WaitGroup
	if usePack {
		p := pack.New[int](capacity, stripes, keepK)
		runPackBench(p, &wg, stop, &pushed, &popped)
	} else {
		r := ring.New[int](capacity)
		runRingBench(r, &wg, stop, &pushed, &popped)
	}

	time.Sleep(duration)
	close(stop)
	wg.Wait()

	elapsed := duration.Seconds()
	logger.Info("benchmark complete",
		zap.Int64("pushed", pushed.Load()),
		zap.Int64("popped", popped.Load()),
		zap.Float64("push_rate_per_sec", float64(pushed.Load())/elapsed),
		zap.Float64("pop_rate_per_sec", float64(popped.Load())/elapsed),
	)
	return nil
}

func runRingBench(r *ring.Ring[int], wg *sync.WaitGroup, stop <-chan struct{}, pushed, popped *atomic.Int64) {
	wg.Add(producers + consumers)
	for i := 0; i < producers; i++ {
		go func() {
			defer wg.Done()
			b := spin.New()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if r.TryPush(1) {
					pushed.Add(1)
					b.Reset()
				} else {
					b.Wait()
				}
			}
		}()
	}
	for i := 0; i < consumers; i++ {
		go func() {
			defer wg.Done()
			b := spin.New()
			var v int
			for {
				select {
				case <-stop:
					return
				default:
				}
				if r.TryPop(&v) {
					popped.Add(1)
					b.Reset()
				} else {
					b.Wait()
				}
			}
		}()
	}
}

func runPackBench(p *pack.Pack[int], wg *sync.WaitGroup, stop <-chan struct{}, pushed, popped *atomic.Int64) {
	wg.Add(producers + consumers)
	for i := 0; i < producers; i++ {
		pr := p.NewProducer()
		go func() {
			defer wg.Done()
			b := spin.New()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if pr.TryPush(1) {
					pushed.Add(1)
					b.Reset()
				} else {
					b.Wait()
				}
			}
		}()
	}
	for i := 0; i < consumers; i++ {
		c := p.NewConsumer()
		go func() {
			defer wg.Done()
			b := spin.New()
			var v int
			for {
				select {
				case <-stop:
					return
				default:
				}
				if c.TryPop(&v) {
					popped.Add(1)
					b.Reset()
				} else {
					b.Wait()
				}
			}
		}()
	}
}
