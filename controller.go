package session

import (
	"fmt"
	"net/http"

	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
)

// AuthControllerRoutes are the routed auth surface paths.
type AuthControllerRoutes struct {
	SignIn         string
	SignOut        string
	AdminSignUp    string
	ForgotPassword string
	ResetPassword  string
}

// AuthControllerViews are the template names the host app renders.
type AuthControllerViews struct {
	SignIn         string
	AdminSignUp    string
	ForgotPassword string
	ResetPassword  string
}

// AuthController exposes the sign-in/sign-up/forgot/reset flows over
// go-router. View rendering stays with the host application; the
// controller binds payloads, drives the Manager and decides redirects.
type AuthController struct {
	Debug        bool
	Logger       Logger
	Manager      *Manager
	Store        *Store
	Notifier     *Notifier
	Routes       *AuthControllerRoutes
	Views        *AuthControllerViews
	Homes        RoleHomes
	ErrorHandler router.ErrorHandler
}

// AuthControllerOption customizes the controller.
type AuthControllerOption func(*AuthController) *AuthController

// WithControllerManager injects the operations manager.
func WithControllerManager(m *Manager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Manager = m
		return c
	}
}

// WithControllerStore injects the session store.
func WithControllerStore(s *Store) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Store = s
		return c
	}
}

// WithControllerNotifier injects the notification merger.
func WithControllerNotifier(n *Notifier) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Notifier = n
		return c
	}
}

// WithControllerLogger overrides the logger.
func WithControllerLogger(l Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

// WithControllerDebug toggles payload dumps.
func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:       defLogger{},
		Homes:        DefaultRoleHomes(),
		ErrorHandler: defaultControllerErrHandler,
		Routes: &AuthControllerRoutes{
			SignIn:         DefaultSignInRoute,
			SignOut:        "/auth/sign-out",
			AdminSignUp:    "/auth/admin/sign-up",
			ForgotPassword: "/auth/forgot-password",
			ResetPassword:  "/auth/reset-password",
		},
		Views: &AuthControllerViews{
			SignIn:         "auth/sign_in",
			AdminSignUp:    "auth/sign_up",
			ForgotPassword: "auth/forgot_password",
			ResetPassword:  "auth/reset_password",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Manager == nil {
		panic("Missing Manager in auth controller...")
	}

	if c.Store == nil {
		panic("Missing Store in auth controller...")
	}

	return c
}

// RegisterAuthRoutes mounts the auth surface. Auth pages are wrapped in
// GuestOnly so signed-in users land on their role home instead.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {
	controller := NewAuthController(opts...)
	guest := GuestOnly(controller.Store, GuardConfig{
		SignInRoute: controller.Routes.SignIn,
		Homes:       controller.Homes,
		Logger:      controller.Logger,
	})

	app.Get(controller.Routes.SignIn, guest(controller.SignInShow)).
		SetName("sign-in.get")
	app.Post(controller.Routes.SignIn, guest(controller.SignInPost)).
		SetName("sign-in.post")

	app.Get(controller.Routes.SignOut, controller.SignOut).
		SetName("sign-out.get")

	app.Get(controller.Routes.AdminSignUp, guest(controller.AdminSignUpShow)).
		SetName("admin-sign-up.get")
	app.Post(controller.Routes.AdminSignUp, guest(controller.AdminSignUpPost)).
		SetName("admin-sign-up.post")

	app.Get(controller.Routes.ForgotPassword, guest(controller.ForgotPasswordShow)).
		SetName("forgot-password.get")
	app.Post(controller.Routes.ForgotPassword, guest(controller.ForgotPasswordPost)).
		SetName("forgot-password.post")

	// the first-login redirect lands here without a token; the emailed
	// reset link carries one
	app.Get(controller.Routes.ResetPassword, controller.ResetPasswordShow).
		SetName("reset-password.get")
	app.Get(fmt.Sprintf("%s/:token", controller.Routes.ResetPassword), controller.ResetPasswordShow).
		SetName("reset-password.token.get")
	app.Post(controller.Routes.ResetPassword, controller.ResetPasswordPost).
		SetName("reset-password.post")
}

func (a *AuthController) SignInShow(ctx router.Context) error {
	return ctx.Render(a.Views.SignIn, router.ViewContext{
		"errors": nil,
		"record": nil,
	})
}

func (a *AuthController) SignInPost(ctx router.Context) error {
	payload := new(Credentials)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("sign in parse payload: %s", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(http.StatusBadRequest).Render(a.Views.SignIn, router.ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("sign in validate payload: %s", err)
		return ctx.Render(a.Views.SignIn, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if a.Debug {
		fmt.Println("======= AUTH SIGN IN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("===========================")
	}

	result, err := a.Manager.Login(ctx.Context(), *payload)
	if err != nil {
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  FailureMessage(err),
			"system_message": "Authentication Error",
		}).Render(a.Views.SignIn, router.ViewContext{
			"errors": map[string]string{"authentication": FailureMessage(err)},
			"record": payload,
		})
	}

	if result.RequiresPasswordChange() {
		// mandatory first-login password change before any dashboard
		return ctx.Redirect(a.Routes.ResetPassword, router.StatusSeeOther)
	}

	home := a.Homes.HomeFor(result.User.NormalizedRole())
	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Signed in",
	}).Redirect(home, router.StatusSeeOther)
}

func (a *AuthController) SignOut(ctx router.Context) error {
	if err := a.Manager.Logout(ctx.Context()); err != nil {
		// session is cleared locally regardless; the redirect still happens
		a.Logger.Warn("remote sign out error: %s", err)
	}
	return ctx.Redirect(a.Routes.SignIn, router.StatusSeeOther)
}

func (a *AuthController) AdminSignUpShow(ctx router.Context) error {
	return ctx.Render(a.Views.AdminSignUp, router.ViewContext{
		"errors": map[string]string{},
		"record": AdminSignup{},
	})
}

func (a *AuthController) AdminSignUpPost(ctx router.Context) error {
	payload := new(AdminSignup)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("admin sign up parse payload: %s", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(http.StatusBadRequest).Render(a.Views.AdminSignUp, router.ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("admin sign up validate payload: %s", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.AdminSignUp, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	result, err := a.Manager.AdminSignup(ctx.Context(), *payload)
	if err != nil {
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  FailureMessage(err),
			"system_message": "Registration Error",
		}).Render(a.Views.AdminSignUp, router.ViewContext{
			"errors": map[string]string{"registration": FailureMessage(err)},
			"record": payload,
		})
	}

	home := a.Homes.HomeFor(result.User.NormalizedRole())
	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Account created",
	}).Redirect(home, router.StatusSeeOther)
}

func (a *AuthController) ForgotPasswordShow(ctx router.Context) error {
	return ctx.Render(a.Views.ForgotPassword, router.ViewContext{
		"errors": nil,
		"record": ForgotPassword{},
	})
}

func (a *AuthController) ForgotPasswordPost(ctx router.Context) error {
	payload := new(ForgotPassword)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("forgot password parse payload: %s", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(http.StatusBadRequest).Render(a.Views.ForgotPassword, router.ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("forgot password validate payload: %s", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.ForgotPassword, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	confirmation, err := a.Manager.ForgotPassword(ctx.Context(), *payload)
	if err != nil {
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  FailureMessage(err),
			"system_message": "Error requesting reset",
		}).Render(a.Views.ForgotPassword, router.ViewContext{
			"errors": map[string]string{"request": FailureMessage(err)},
			"record": payload,
		})
	}

	if a.Debug {
		fmt.Println("======= PASSWORD RESET ======")
		fmt.Println(print.MaybePrettyJSON(confirmation))
		fmt.Println("=============================")
	}

	return ctx.Render(a.Views.ForgotPassword, router.ViewContext{
		"errors": nil,
		"reset": map[string]string{
			"stage": "email-sent",
			"email": payload.Email,
		},
	})
}

func (a *AuthController) ResetPasswordShow(ctx router.Context) error {
	token := ctx.Param("token", "")

	return ctx.Render(a.Views.ResetPassword, router.ViewContext{
		"errors": nil,
		"reset": map[string]string{
			"token":       token,
			"first_login": fmt.Sprintf("%t", a.Store.Snapshot().FirstLogin),
		},
	})
}

func (a *AuthController) ResetPasswordPost(ctx router.Context) error {
	payload := new(ResetPassword)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("reset password parse payload: %s", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(http.StatusBadRequest).Render(a.Views.ResetPassword, router.ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": payload,
		})
	}

	payload.FirstLogin = payload.FirstLogin || a.Store.Snapshot().FirstLogin

	if err := payload.Validate(); err != nil {
		a.Logger.Error("reset password validate payload: %s", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.ResetPassword, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	confirmation, err := a.Manager.ResetPassword(ctx.Context(), *payload)
	if err != nil {
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  FailureMessage(err),
			"system_message": "Error resetting password",
		}).Render(a.Views.ResetPassword, router.ViewContext{
			"errors": map[string]string{"reset": FailureMessage(err)},
			"record": payload,
		})
	}

	// a first-login reset signs the refreshed user straight in
	if confirmation != nil && confirmation.User != nil {
		home := a.Homes.HomeFor(confirmation.User.NormalizedRole())
		return flash.WithSuccess(ctx, router.ViewContext{
			"system_message": "Password changed",
		}).Redirect(home, router.StatusSeeOther)
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Password changed, please sign in",
	}).Redirect(a.Routes.SignIn, router.StatusSeeOther)
}

func defaultControllerErrHandler(c router.Context, err error) error {
	return c.Render("errors/500", router.ViewContext{
		"message": err.Error(),
	})
}
