// Command dummy-oauth runs a standalone OAuth token server for
// integration testing. It mints RS256 tokens for any caller without
// checking credentials and publishes its verification key as a JWKS.
package main

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

type CLI struct {
	Addr           string `default:":8085" help:"Address to listen on."`
	PrivateKeyFile string `required:"" help:"Path to the RS256 signing key (PEM)."`
	KeyID          string `default:"dummy-oauth" help:"Key ID advertised in the JWKS."`
	JWKSURI        string `name:"jwks-uri" help:"Externally reachable JWKS URI advertised in the server metadata."`
}

type server struct {
	key     *rsa.PrivateKey
	keyID   string
	jwksURI string
}

// getToken mints a token from query parameters. Used by adapters that
// pass everything on the URL.
func (s *server) getToken(c echo.Context) error {
	audience := c.QueryParam("intended_audience")
	if audience == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Missing `intended_audience` query parameter"})
	}

	scope := c.QueryParam("scope")
	if scope == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Missing `scope` query parameter"})
	}

	issuer := c.QueryParam("issuer")
	if issuer == "" {
		issuer = "dummyoauth"
	}

	sub := c.QueryParam("sub")
	if sub == "" {
		sub = "fake_uss"
	}

	expire := time.Now().Add(time.Hour).Unix()
	if raw := c.QueryParam("expire"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid `expire` query parameter"})
		}

		expire = parsed
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"aud":   audience,
		"scope": scope,
		"iss":   issuer,
		"exp":   expire,
		"sub":   sub,
	})

	signed, err := token.SignedString(s.key)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error_message": err.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{"access_token": signed})
}

// postToken mints a token from a form body, the flow exercised by
// signed token requests.
func (s *server) postToken(c echo.Context) error {
	// Signed requests carry everything in the body; fall back to the
	// query handler when no form fields arrived.
	scope := c.FormValue("scope")
	audience := c.FormValue("audience")
	if audience == "" {
		audience = c.FormValue("resource")
	}

	if scope == "" && audience == "" && c.QueryParam("scope") != "" {
		return s.getToken(c)
	}

	if scope == "" {
		msg := "Body is required with scope and audience. client_id is optional"
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing scope in request `body`", "error_description": msg})
	}

	if audience == "" {
		msg := "Body is required with scope and audience. client_id is optional"
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing audience in request `body`", "error_description": msg})
	}

	sub := c.FormValue("client_id")
	if sub == "" {
		sub = "MissingClientId"
	}

	now := time.Now()
	expiresIn := now.Add(time.Hour).Unix()
	nbf := now.Unix()
	jti := uuid.New().String()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"token_type": "bearer",
		"aud":        audience,
		"scope":      scope,
		"iss":        "dummy.auth",
		"expires_in": expiresIn,
		"sub":        sub,
		"nbf":        nbf,
		"jti":        jti,
	})

	signed, err := token.SignedString(s.key)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error_message": err.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"access_token": signed,
		"scope":        scope,
		"token_type":   "bearer",
		"expires_in":   expiresIn,
		"nbf":          nbf,
		"sub":          sub,
		"jti":          jti,
		"aud":          audience,
	})
}

func (s *server) jwks(c echo.Context) error {
	key, err := jwk.FromRaw(&s.key.PublicKey)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error_message": err.Error()})
	}

	if err := key.Set(jwk.KeyIDKey, s.keyID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error_message": err.Error()})
	}

	if err := key.Set(jwk.AlgorithmKey, "RS256"); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error_message": err.Error()})
	}

	set := jwk.NewSet()
	if err := set.AddKey(key); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error_message": err.Error()})
	}

	return c.JSON(http.StatusOK, set)
}

func (s *server) metadata(c echo.Context) error {
	uri := s.jwksURI
	if uri == "" {
		uri = "http://" + c.Request().Host + "/.well-known/jwks.json"
	}

	return c.JSON(http.StatusOK, echo.Map{"jwks_uri": uri})
}

func (cli *CLI) Run(ctx context.Context, logger *slog.Logger) error {
	keyBytes, err := os.ReadFile(cli.PrivateKeyFile)
	if err != nil {
		return fmt.Errorf("reading private key: %w", err)
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM(keyBytes)
	if err != nil {
		return fmt.Errorf("parsing private key: %w", err)
	}

	srv := &server{key: key, keyID: cli.KeyID, jwksURI: cli.JWKSURI}

	e := echo.New()
	e.HideBanner = true
	e.GET("/token", srv.getToken)
	e.POST("/token", srv.postToken)
	e.GET("/.well-known/jwks.json", srv.jwks)
	e.GET("/.well-known/oauth-authorization-server", srv.metadata)

	go func() {
		logger.Info("dummy-oauth listening", slog.String("addr", cli.Addr))
		if err := e.Start(cli.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("serve failed", slog.Any("error", err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down")

	return e.Shutdown(shutdownCtx)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var cli CLI
	kctx := kong.Parse(&cli)
	kctx.FatalIfErrorf(cli.Run(ctx, logger))
}
