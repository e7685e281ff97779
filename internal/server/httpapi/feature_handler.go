package httpapi

import (
	"context"
	"strconv"

	"github.com/dmitrijs2005/userembed/internal/server/embedding"
	"github.com/dmitrijs2005/userembed/internal/server/services"
	"github.com/dmitrijs2005/userembed/internal/vector"
	"github.com/gofiber/fiber/v2"
)

const (
	defaultFeatureSize = 2048

	VectorSizeHeader  = "X-Vector-Size"
	VectorDTypeHeader = "X-Vector-Dtype"
)

type featureRequest struct {
	Protocol string `json:"protocol"`
	Size     *int   `json:"size" validate:"omitempty,min=1,max=65536"`
	DType    string `json:"dtype"`
}

// command parses the enumerations. With shapeDefaults an omitted size or
// dtype takes the creation default; otherwise it stays zero so the stored
// shape applies.
func (r featureRequest) command(shapeDefaults bool) (services.FeatureCommand, error) {
	cmd := services.FeatureCommand{Protocol: embedding.DefaultProtocol}
	if shapeDefaults {
		cmd.Size = defaultFeatureSize
		cmd.DType = vector.DefaultDType
	}
	if r.Protocol != "" {
		p, err := embedding.ParseProtocol(r.Protocol)
		if err != nil {
			return cmd, err
		}
		cmd.Protocol = p
	}
	if r.Size != nil {
		cmd.Size = *r.Size
	}
	if r.DType != "" {
		dt, err := vector.ParseDType(r.DType)
		if err != nil {
			return cmd, err
		}
		cmd.DType = dt
	}
	return cmd, nil
}

type featureResponse struct {
	Size       int           `json:"size"`
	DType      string        `json:"dtype"`
	UserVector vector.Matrix `json:"user_vector"`
}

type deletedFeatureResponse struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id"`
	Size   int    `json:"size"`
	DType  string `json:"dtype"`
}

// FeatureHandler wires HTTP → FeatureAPI.
type FeatureHandler struct {
	svc FeatureAPI
}

func NewFeatureHandler(svc FeatureAPI) *FeatureHandler {
	return &FeatureHandler{svc: svc}
}

// Register mounts the /user-feature routes on r.
func (h *FeatureHandler) Register(r fiber.Router, authn, admin fiber.Handler) {
	g := r.Group("/user-feature")
	g.Get("/", authn, h.get)
	g.Get("/binary", authn, h.getBinary)
	g.Post("/", authn, h.create)
	g.Patch("/", authn, h.update)
	g.Delete("/:user_id", authn, admin, h.delete)
}

func (h *FeatureHandler) get(c *fiber.Ctx) error {
	fv, err := h.svc.Get(c.UserContext(), currentUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(toFeatureResponse(fv))
}

func (h *FeatureHandler) getBinary(c *fiber.Ctx) error {
	fb, err := h.svc.GetBinary(c.UserContext(), currentUserID(c))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	c.Set(VectorSizeHeader, strconv.Itoa(fb.Size))
	c.Set(VectorDTypeHeader, fb.DType.String())
	return c.Send(fb.BVector)
}

func (h *FeatureHandler) create(c *fiber.Ctx) error {
	return h.write(c, h.svc.Create, true)
}

func (h *FeatureHandler) update(c *fiber.Ctx) error {
	return h.write(c, h.svc.Update, false)
}

func (h *FeatureHandler) write(c *fiber.Ctx, op func(context.Context, int64, services.FeatureCommand) (*services.FeatureVector, error), shapeDefaults bool) error {
	var req featureRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	cmd, err := req.command(shapeDefaults)
	if err != nil {
		return err
	}

	fv, err := op(c.UserContext(), currentUserID(c), cmd)
	if err != nil {
		return err
	}
	return c.JSON(toFeatureResponse(fv))
}

func (h *FeatureHandler) delete(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		return validationError([]string{"user_id: value is not a valid integer"})
	}

	d, err := h.svc.Delete(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(deletedFeatureResponse{ID: d.ID, UserID: d.UserID, Size: d.Size, DType: d.DType.String()})
}

func toFeatureResponse(fv *services.FeatureVector) featureResponse {
	return featureResponse{Size: fv.Size, DType: fv.DType.String(), UserVector: fv.Vector}
}
