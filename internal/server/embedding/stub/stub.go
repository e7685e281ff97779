// Package stub is a deterministic stand-in for the embedding provider. It
// serves the JSON, octet and gRPC contracts the gateway speaks, producing the
// same vector for the same (user, size) pair.
package stub

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"strconv"
	"time"

	"github.com/dmitrijs2005/userembed/internal/logging"
	"github.com/dmitrijs2005/userembed/internal/server/embedding/embeddingpb"
	"github.com/dmitrijs2005/userembed/internal/vector"
	"github.com/gofiber/fiber/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const maxSize = 1 << 16

type request struct {
	Size  int    `json:"size"`
	DType string `json:"dtype"`
}

type Provider struct {
	embeddingpb.UnimplementedEmbeddingServiceServer
	logger logging.Logger
}

func NewProvider(l logging.Logger) *Provider {
	return &Provider{logger: l.With("module", "embedding_stub")}
}

// Vector returns the 1×size embedding for userID. Values lie in [-1, 1).
func Vector(userID int64, size int) vector.Matrix {
	row := make([]float64, size)
	for i := range row {
		row[i] = math.Sin(float64(userID)*0.7 + float64(i)*0.013)
	}
	return vector.Matrix{row}
}

func validate(size int, dtype string) (vector.DType, error) {
	if size <= 0 || size > maxSize {
		return "", fmt.Errorf("size must be in 1..%d", maxSize)
	}
	return vector.ParseDType(dtype)
}

// App returns the HTTP side of the stub.
func (p *Provider) App() *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Post("/v1/embedding/user/:id", p.handleJSON)
	app.Post("/v1/embedding/user/:id/octet", p.handleOctet)
	return app
}

func (p *Provider) parse(c *fiber.Ctx) (int64, request, vector.DType, error) {
	var req request
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, req, "", fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}
	if err := c.BodyParser(&req); err != nil {
		return 0, req, "", fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	dt, err := validate(req.Size, req.DType)
	if err != nil {
		return 0, req, "", fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	return id, req, dt, nil
}

func (p *Provider) handleJSON(c *fiber.Ctx) error {
	id, req, _, err := p.parse(c)
	if err != nil {
		return err
	}
	p.logger.Debug(c.UserContext(), "json embedding", "user_id", id, "size", req.Size)
	return c.JSON(fiber.Map{"user_vector": Vector(id, req.Size)})
}

func (p *Provider) handleOctet(c *fiber.Ctx) error {
	id, req, dt, err := p.parse(c)
	if err != nil {
		return err
	}
	b, err := vector.Encode(Vector(id, req.Size), dt)
	if err != nil {
		return err
	}
	p.logger.Debug(c.UserContext(), "octet embedding", "user_id", id, "size", req.Size, "dtype", dt)
	c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	return c.Send(b)
}

// UserEmbedding serves the gRPC contract.
func (p *Provider) UserEmbedding(ctx context.Context, in *structpb.Struct) (*wrapperspb.BytesValue, error) {
	f := in.GetFields()
	id := int64(f["user_id"].GetNumberValue())
	size := int(f["size"].GetNumberValue())

	dt, err := validate(size, f["dtype"].GetStringValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	b, err := vector.Encode(Vector(id, size), dt)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	p.logger.Debug(ctx, "grpc embedding", "user_id", id, "size", size, "dtype", dt)
	return wrapperspb.Bytes(b), nil
}

// Register mounts the gRPC service on s.
func (p *Provider) Register(s grpc.ServiceRegistrar) {
	embeddingpb.RegisterEmbeddingServiceServer(s, p)
}

// loggingInterceptor logs every unary call with its outcome code.
func (p *Provider) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	p.logger.Info(ctx, "grpc call", "method", info.FullMethod, "code", status.Code(err).String(), "latency", time.Since(start))
	return resp, err
}

// RunGRPC serves the gRPC contract on address until ctx is done.
func (p *Provider) RunGRPC(ctx context.Context, address string) error {
	listen, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(p.loggingInterceptor))
	p.Register(srv)

	go func() {
		<-ctx.Done()
		p.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	p.logger.Info(ctx, "Starting gRPC server", "address", address)

	if err := srv.Serve(listen); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// RunHTTP serves the HTTP contracts on address until ctx is done.
func (p *Provider) RunHTTP(ctx context.Context, address string) error {
	app := p.App()

	go func() {
		<-ctx.Done()
		p.logger.Info(ctx, "Stopping HTTP server...")
		_ = app.Shutdown()
	}()

	p.logger.Info(ctx, "Starting HTTP server", "address", address)

	return app.Listen(address)
}
