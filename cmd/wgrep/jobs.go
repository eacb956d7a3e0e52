package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync"

	"github.com/jmurray2011/wgrep/internal/filesystem"
	"github.com/jmurray2011/wgrep/internal/report"
	"github.com/jmurray2011/wgrep/internal/scan"
)

// searcher runs scans over several inputs concurrently.
type searcher struct {
	scanConfig scan.Config
	format     report.Format
	opener     filesystem.FileOpener
	jobs       int
}

// fileResult is the buffered output of one input.
type fileResult struct {
	out bytes.Buffer
	sum scan.Summary
	err error
}

// run searches paths with up to s.jobs workers. Each worker owns a single
// scanner, and output is written in the order the paths were given.
func (s *searcher) run(ctx context.Context, paths []string, stdout, stderr io.Writer) (matched, failed bool) {
	results := make([]chan *fileResult, len(paths))
	for i := range results {
		results[i] = make(chan *fileResult, 1)
	}

	workers := min(max(s.jobs, 1), len(paths))
	work := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sc := scan.New(s.scanConfig)
			for i := range work {
				results[i] <- s.searchFile(ctx, sc, paths[i])
			}
		}()
	}

	go func() {
		defer close(work)
		for i := range paths {
			work <- i
		}
	}()

	for i, path := range paths {
		r := <-results[i]
		if _, err := stdout.Write(r.out.Bytes()); err != nil {
			fmt.Fprintf(stderr, "wgrep: writing output: %v\n", err)
			failed = true
		}
		if r.err != nil {
			fmt.Fprintf(stderr, "wgrep: %s: %v\n", filesystem.DisplayName(path), r.err)
			failed = true
		}
		if r.sum.Matches > 0 {
			matched = true
		}
	}

	wg.Wait()
	return matched, failed
}

// searchFile scans one input into a buffered result.
func (s *searcher) searchFile(ctx context.Context, sc scan.Scanner, path string) *fileResult {
	r := &fileResult{}
	name := filesystem.DisplayName(path)

	in, err := filesystem.OpenInput(s.opener, path)
	if err != nil {
		// The path is already in the message prefix
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			err = pathErr.Err
		}
		r.err = err
		return r
	}
	defer in.Close()

	p := report.NewPrinter(&r.out, s.format)
	r.sum, r.err = sc.Scan(ctx, name, in, func(m scan.Match) error {
		return p.Match(name, m)
	})
	if r.err == nil {
		r.err = p.Finish(name, r.sum)
	}
	return r
}
