package httpapi

import (
	"github.com/dmitrijs2005/userembed/internal/server/services"
	"github.com/gofiber/fiber/v2"
)

type registerRequest struct {
	Email     string   `json:"email" validate:"required,email"`
	Password1 string   `json:"password1" validate:"required"`
	Password2 string   `json:"password2" validate:"required"`
	Nickname  string   `json:"nickname" validate:"required,max=64"`
	Favorite  *string  `json:"favorite"`
	Lat       *float64 `json:"lat" validate:"omitempty,min=-90,max=90"`
	Lng       *float64 `json:"lng" validate:"omitempty,min=-180,max=180"`
}

type registerResponse struct {
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type listUsersQuery struct {
	Limit int   `query:"limit" validate:"min=1,max=12"`
	Prev  int64 `query:"prev" validate:"min=0"`
}

type userListItem struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

// UserHandler wires HTTP → UserAPI.
type UserHandler struct {
	svc UserAPI
}

func NewUserHandler(svc UserAPI) *UserHandler {
	return &UserHandler{svc: svc}
}

// Register mounts /user and /auth routes on r.
func (h *UserHandler) Register(r fiber.Router, authn, admin fiber.Handler) {
	r.Get("/user", authn, admin, h.list)
	r.Post("/user", h.register)
	r.Post("/user/login", h.login)
	r.Post("/auth/refresh", h.refresh)
}

func (h *UserHandler) register(c *fiber.Ctx) error {
	var req registerRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	u, err := h.svc.Register(c.UserContext(), services.RegisterCommand{
		Email:     req.Email,
		Password1: req.Password1,
		Password2: req.Password2,
		Nickname:  req.Nickname,
		Favorite:  req.Favorite,
		Lat:       req.Lat,
		Lng:       req.Lng,
	})
	if err != nil {
		return err
	}
	return c.JSON(registerResponse{Email: u.Email, Nickname: u.Nickname})
}

func (h *UserHandler) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	pair, err := h.svc.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (h *UserHandler) refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	pair, err := h.svc.RefreshToken(c.UserContext(), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (h *UserHandler) list(c *fiber.Ctx) error {
	q := listUsersQuery{Limit: services.DefaultListLimit}
	if err := bindQuery(c, &q); err != nil {
		return err
	}

	users, err := h.svc.ListUsers(c.UserContext(), q.Limit, q.Prev)
	if err != nil {
		return err
	}

	out := make([]userListItem, 0, len(users))
	for _, u := range users {
		out = append(out, userListItem{ID: u.ID, Email: u.Email, Nickname: u.Nickname})
	}
	return c.JSON(out)
}
