// Command embedding-stub runs a deterministic embedding provider for local
// development and load tests. It serves the HTTP JSON and octet endpoints and
// the gRPC EmbeddingService.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/userembed/internal/logging"
	"github.com/dmitrijs2005/userembed/internal/server/embedding/stub"
)

func main() {
	httpAddr := flag.String("http", ":8001", "HTTP listen address (empty disables)")
	grpcAddr := flag.String("grpc", ":50051", "gRPC listen address (empty disables)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := stub.NewProvider(logging.NewJSONLogger(os.Stdout, slog.LevelDebug))

	var wg sync.WaitGroup
	run := func(name, addr string, fn func(context.Context, string) error) {
		if addr == "" {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx, addr); err != nil {
				log.Printf("%s server: %v", name, err)
				stop()
			}
		}()
	}

	run("http", *httpAddr, p.RunHTTP)
	run("grpc", *grpcAddr, p.RunGRPC)

	wg.Wait()
}
