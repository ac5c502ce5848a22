package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"

	"booktracker/internal/logger"
	synchub "booktracker/internal/sync"
	"booktracker/pkg/utils"
)

func main() {
	cfg, err := utils.LoadConfig(".env")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	addr := flag.String("addr", dialAddr(cfg.TCP.Addr), "TCP sync server address")
	raw := flag.Bool("raw", false, "print events as raw JSON lines")
	flag.Parse()

	lg := logger.New(logger.Config{Environment: cfg.Env, Level: cfg.Log.Level, Writer: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		if err := run(ctx, *addr, os.Stdout, *raw, lg); err != nil {
			lg.Warn("disconnected", "addr", *addr, "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second): // auto reconnect
		}
	}
}

// dialAddr turns a listen address such as ":7070" into one a client can dial.
func dialAddr(listen string) string {
	if listen == "" {
		return "127.0.0.1:7070"
	}
	if strings.HasPrefix(listen, ":") {
		return "127.0.0.1" + listen
	}
	return listen
}

func run(ctx context.Context, addr string, out io.Writer, raw bool, lg *slog.Logger) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	lg.Info("connected", "addr", addr)

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		printLine(out, sc.Bytes(), raw)
	}
	if ctx.Err() != nil {
		return nil
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return io.EOF
}

func printLine(out io.Writer, line []byte, raw bool) {
	if raw {
		fmt.Fprintln(out, string(line))
		return
	}

	var ev synchub.BookEvent
	if err := json.Unmarshal(line, &ev); err != nil || !strings.HasPrefix(ev.Type, "book.") {
		// welcome frames and anything unexpected
		fmt.Fprintln(out, color.HiBlackString(string(line)))
		return
	}
	fmt.Fprintf(out, "%s %s #%d %s %s\n",
		ev.At.Local().Format(time.TimeOnly),
		color.CyanString(ev.Type), ev.BookID, ev.Title, color.YellowString(ev.Status))
}
