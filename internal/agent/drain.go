package agent

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os/exec"

	"golang.org/x/sync/errgroup"
)

// runCollected starts cmd and drains stdout/stderr concurrently so that a
// child that fills one pipe's OS buffer while we're still reading the other
// cannot deadlock. Returns combined stdout, stderr, and the command's error
// (nil on a zero exit).
func runCollected(cmd *exec.Cmd) (stdout, stderr []byte, err error) {
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, errCommandExecution("failed to open stdout pipe", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, nil, errCommandExecution("failed to open stderr pipe", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, nil, errCommandExecution("failed to start claude", err)
	}

	var g errgroup.Group
	var outBuf, errBuf bytes.Buffer
	g.Go(func() error {
		_, copyErr := io.Copy(&outBuf, stdoutPipe)
		return copyErr
	})
	g.Go(func() error {
		_, copyErr := io.Copy(&errBuf, stderrPipe)
		return copyErr
	})
	drainErr := g.Wait()

	waitErr := cmd.Wait()
	if drainErr != nil && waitErr == nil {
		waitErr = drainErr
	}
	return outBuf.Bytes(), errBuf.Bytes(), waitErr
}

// streamLines starts cmd, drains stderr on its own goroutine (joined after
// Wait), and invokes onLine for each newline-delimited chunk of stdout as it
// arrives. Mirrors the original client's dedicated-stderr-thread shape.
func streamLines(ctx context.Context, cmd *exec.Cmd, onLine func(line []byte)) (stderr []byte, err error) {
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errCommandExecution("failed to open stdout pipe", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, errCommandExecution("failed to open stderr pipe", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, errCommandExecution("failed to start claude", err)
	}

	var errBuf bytes.Buffer
	stderrDone := make(chan struct{})
	go func() {
		defer close(stderrDone)
		_, _ = io.Copy(&errBuf, stderrPipe)
	}()

	scanner := bufio.NewScanner(stdoutPipe)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			_ = cmd.Process.Kill()
		default:
		}
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		onLine(cp)
	}

	waitErr := cmd.Wait()
	<-stderrDone
	return errBuf.Bytes(), waitErr
}
