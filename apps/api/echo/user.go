package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/qwaszx001001/byzantium/core/user"
)

type userApi struct {
	*Server
}

func registerUserAPI(s *Server, g *echo.Group, jwt echo.MiddlewareFunc) {
	api := userApi{s}

	ug := g.Group("/users")
	ug.POST("/login", api.login)

	ag := ug.Group("", jwt)
	ag.GET("/me", api.me)
	ag.POST("/token-refresh", api.refreshToken)
}

func (api *userApi) login(ctx echo.Context) error {
	var creds user.Credentials
	if err := ctx.Bind(&creds); err != nil {
		return errors.Wrap(err, "binding to user.Credentials")
	}
	if err := api.Validate.Struct(creds); err != nil {
		return err
	}

	usr, err := api.UserSvc.Authenticate(ctx.Request().Context(), creds)
	if err != nil {
		if err == user.ErrNotFound {
			return errAuthenticationFailed
		}
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(api.Conf, GetUserClaims(api.Conf, usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.UserSvc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.Conf, api.UserSvc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}
