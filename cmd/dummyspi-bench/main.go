// Command dummyspi-bench drives a dummy.DummyPersistence with synthetic
// load, generalizing the teacher's brimstore-valuesstore benchmark harness
// from raw key/value records onto bucket/timestamp/document puts, gets,
// and removes.
package main

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"golang.org/x/net/context"

	"github.com/gholt/brimutil"
	"github.com/jessevdk/go-flags"

	"github.com/appotry/vespa/document"
	"github.com/appotry/vespa/dummy"
)

type optsStruct struct {
	Clients       int  `long:"clients" description:"The number of clients; reported only, load runs one goroutine per bucket. Default: cores*cores"`
	Cores         int  `long:"cores" description:"The number of cores. Default: CPU core count"`
	ExtendedStats bool `long:"extended-stats" description:"Extended statistics at exit."`
	Number        int  `short:"n" long:"number" description:"Number of documents. Default: 0"`
	Buckets       int  `short:"b" long:"buckets" description:"Number of distinct buckets to spread documents over. Default: 1"`
	Random        int  `long:"random" description:"Random number seed. Default: 0"`
	Positional    struct {
		Tests []string `name:"tests" description:"put get remove"`
	} `positional-args:"yes"`

	ids     []string
	buckets []dummy.Bucket
	st      runtime.MemStats
	p       *dummy.DummyPersistence
}

var opts optsStruct
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		args = append(args, "-h")
	}
	if _, err := parser.ParseArgs(args); err != nil {
		os.Exit(1)
	}
	for _, arg := range opts.Positional.Tests {
		switch arg {
		case "put":
		case "get":
		case "remove":
		default:
			fmt.Fprintf(os.Stderr, "Unknown test named %#v.\n", arg)
			os.Exit(1)
		}
	}
	if opts.Cores > 0 {
		runtime.GOMAXPROCS(opts.Cores)
	} else if os.Getenv("GOMAXPROCS") == "" {
		runtime.GOMAXPROCS(runtime.NumCPU())
	}
	opts.Cores = runtime.GOMAXPROCS(0)
	if opts.Clients == 0 {
		opts.Clients = opts.Cores * opts.Cores
	}
	if opts.Buckets <= 0 {
		opts.Buckets = 1
	}

	seed := brimutil.NewSeededScrambled(int64(opts.Random))
	idBytes := make([]byte, opts.Number*16)
	seed.Read(idBytes)
	opts.ids = make([]string, opts.Number)
	for i := range opts.ids {
		opts.ids[i] = fmt.Sprintf("id:bench:doc::%x", idBytes[i*16:i*16+16])
	}

	opts.buckets = make([]dummy.Bucket, opts.Buckets)
	for i := range opts.buckets {
		opts.buckets[i] = dummy.Bucket{
			Space: dummy.DefaultBucketSpace,
			Id:    dummy.BucketId{UsedBits: 32, RawId: uint64(i)},
		}
	}

	fmt.Println(opts.Cores, "cores")
	fmt.Println(opts.Clients, "clients")
	fmt.Println(opts.Number, "documents")
	fmt.Println(opts.Buckets, "buckets")
	memstat()

	begin := time.Now()
	opts.p = dummy.NewDummyPersistence(nil)
	opts.p.Initialize()
	ctx := context.Background()
	for _, b := range opts.buckets {
		opts.p.CreateBucket(b, ctx)
	}
	dur := time.Since(begin)
	fmt.Println(dur, "to start DummyPersistence")
	memstat()

	for _, arg := range opts.Positional.Tests {
		switch arg {
		case "put":
			put()
		case "get":
			get()
		case "remove":
			remove()
		}
		memstat()
	}

	begin = time.Now()
	stats := opts.p.GatherStats(opts.ExtendedStats)
	dur = time.Since(begin)
	fmt.Println(dur, "to gather stats")
	if opts.ExtendedStats {
		fmt.Println(stats.String())
	} else {
		fmt.Println(stats.EntryCount, "EntryCount")
		fmt.Println(stats.UsedSize, "UsedSize")
	}
	memstat()
}

func memstat() {
	lastAlloc := opts.st.TotalAlloc
	runtime.ReadMemStats(&opts.st)
	deltaAlloc := opts.st.TotalAlloc - lastAlloc
	lastAlloc = opts.st.TotalAlloc
	fmt.Printf("%0.2fG total alloc, %0.2fG delta\n\n", float64(opts.st.TotalAlloc)/1024/1024/1024, float64(deltaAlloc)/1024/1024/1024)
}

// bucketFor deterministically assigns a document index to one of opts.buckets.
// Every exclusive operation (put/remove) is dispatched one goroutine per
// bucket below so that two goroutines never contend for the same bucket's
// exclusive guard -- the store treats that as a caller bug (a fatal
// invariant violation), not something it queues or blocks on.
func bucketFor(i int) dummy.Bucket {
	return opts.buckets[i%len(opts.buckets)]
}

// forEachBucketConcurrently groups document indices by their assigned
// bucket and runs fn for each group on its own goroutine, so within a group
// the calls are sequential (one exclusive guard at a time) while different
// buckets proceed in parallel.
func forEachBucketConcurrently(fn func(i int)) {
	groups := make([][]int, len(opts.buckets))
	for i := range opts.ids {
		bi := i % len(opts.buckets)
		groups[bi] = append(groups[bi], i)
	}
	wg := &sync.WaitGroup{}
	wg.Add(len(groups))
	for _, group := range groups {
		go func(indices []int) {
			defer wg.Done()
			for _, i := range indices {
				fn(i)
			}
		}(group)
	}
	wg.Wait()
}

func put() {
	ctx := context.Background()
	begin := time.Now()
	forEachBucketConcurrently(func(i int) {
		doc := document.NewDocument("bench", document.NewId(opts.ids[i]))
		doc.Fields["seq"] = i
		if r := opts.p.Put(bucketFor(i), dummy.Timestamp(i+1), doc, ctx); r.HasError() {
			panic(r.Error())
		}
	})
	fmt.Println(time.Since(begin), "to put", len(opts.ids), "documents")
}

func get() {
	ctx := context.Background()
	begin := time.Now()
	forEachBucketConcurrently(func(i int) {
		opts.p.Get(bucketFor(i), document.AllFields(), document.NewId(opts.ids[i]), ctx)
	})
	fmt.Println(time.Since(begin), "to get", len(opts.ids), "documents")
}

func remove() {
	ctx := context.Background()
	begin := time.Now()
	forEachBucketConcurrently(func(i int) {
		opts.p.Remove(bucketFor(i), dummy.Timestamp(len(opts.ids)+i+1), document.NewId(opts.ids[i]), ctx)
	})
	fmt.Println(time.Since(begin), "to remove", len(opts.ids), "documents")
}
