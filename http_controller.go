package onboard

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
)

type Middleware interface {
	ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc
	RouteGuard(requiredRole AccountRole) router.MiddlewareFunc
}

func GetRouterSession(c router.Context, key string) (*SessionObject, error) {
	cookie := c.Locals(key)
	if cookie == nil {
		return nil, ErrUnableToFindSession
	}

	claims, ok := cookie.(AuthClaims)
	if claims == nil || !ok {
		return nil, ErrUnableToDecodeSession
	}

	return sessionFromAuthClaims(claims)
}

func RegisterOnboardRoutes[T any](app router.Router[T], opts ...OnboardControllerOption) {

	controller := NewOnboardController(opts...)

	app.
		Get(controller.Routes.Login,
			controller.LoginShow,
		).
		SetName("sign-in.get")

	app.
		Post(
			controller.Routes.Login,
			controller.LoginPost,
		).
		SetName("sign-in.post")

	app.Get(controller.Routes.Logout, controller.LogOut).SetName("sign-out.get")

	app.Get(controller.Routes.Register, controller.RegistrationShow).
		SetName("register.get")
	app.Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("register.post")

	protected := controller.Auther.ProtectedRoute(
		controller.Config,
		controller.Auther.MakeClientRouteAuthErrorHandler(false),
	)

	app.Get(controller.Routes.Me, controller.Me, protected).
		SetName("me.get")
	app.Get(controller.Routes.MeStatus, controller.MeStatus, protected).
		SetName("me-status.get")

	adminOnly := controller.Auther.RouteGuard(RoleAdmin)

	app.Get(controller.Routes.AdminReview, controller.AdminReviewList, protected, adminOnly).
		SetName("admin-review.get")
	app.Post(fmt.Sprintf("%s/:id/approve", controller.Routes.AdminReview), controller.AdminApprove, protected, adminOnly).
		SetName("admin-review-approve.post")
	app.Post(fmt.Sprintf("%s/:id/reject", controller.Routes.AdminReview), controller.AdminReject, protected, adminOnly).
		SetName("admin-review-reject.post")
}

type OnboardControllerRoutes struct {
	Login       string
	Logout      string
	Register    string
	Me          string
	MeStatus    string
	AdminReview string
}

type OnboardControllerViews struct {
	Login       string
	Register    string
	AdminReview string
}

type OnboardController struct {
	Debug         bool
	Logger        Logger
	Repo          RepositoryManager
	Config        Config
	Routes        *OnboardControllerRoutes
	Views         *OnboardControllerViews
	Auther        HTTPAuthenticator
	Registrations *RegisterAccountHandler
	Reviews       *ReviewAccountHandler
	ErrorHandler  router.ErrorHandler
}

type OnboardControllerOption func(*OnboardController) *OnboardController

func NewOnboardController(opts ...OnboardControllerOption) *OnboardController {
	c := &OnboardController{
		Logger:       defLogger{},
		ErrorHandler: defaultErrHandler,
		Routes: &OnboardControllerRoutes{
			Login:       "/login",
			Logout:      "/logout",
			Register:    "/register",
			Me:          "/me",
			MeStatus:    "/me/status",
			AdminReview: "/admin/review",
		},
		Views: &OnboardControllerViews{
			Login:       "login",
			Register:    "register",
			AdminReview: "admin_review",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in onboard controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in onboard controller...")
	}

	if c.Config == nil {
		panic("Missing Config in onboard controller...")
	}

	if c.Registrations == nil {
		c.Registrations = NewRegisterAccountHandler(c.Repo)
	}

	if c.Reviews == nil {
		c.Reviews = NewReviewAccountHandler(c.Repo)
	}

	return c
}

func (a *OnboardController) LoginShow(ctx router.Context) error {
	return ctx.Render(a.Views.Login, router.ViewContext{
		"errors": nil,
		"record": nil,
	})
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `form:"identifier" json:"identifier"`
	Password   string `form:"password" json:"password"`
	RememberMe bool   `form:"remember_me" json:"remember_me"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Identifier
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// GetExtendedSession reports whether the client asked for a long session
func (r LoginRequest) GetExtendedSession() bool {
	return r.RememberMe
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Identifier,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *OnboardController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)
	errs := map[string]string{}

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.Render(a.Views.Login, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if a.Debug {
		fmt.Println("======= ONBOARD LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("============================")
	}

	if err := a.Auther.Login(ctx, payload); err != nil {
		// Same message for unknown email and bad password
		errs["authentication"] = "Authentication Error"
		return ctx.Render(a.Views.Login, router.ViewContext{
			"errors":  errs,
			"payload": payload,
		})
	}

	redirect := a.Auther.GetRedirect(ctx, "/")

	return ctx.Redirect(redirect, router.StatusSeeOther)
}

func (a *OnboardController) LogOut(ctx router.Context) error {
	a.Auther.Logout(ctx)
	return ctx.Redirect("/", router.StatusTemporaryRedirect)
}

func (a *OnboardController) RegistrationShow(ctx router.Context) error {
	return ctx.Render(a.Views.Register, router.ViewContext{
		"errors": map[string]string{},
		"record": RegisterAccountMessage{},
	})
}

// RegistrationCreatePayload is the form payload
type RegistrationCreatePayload struct {
	FullName        string `form:"full_name" json:"full_name"`
	Email           string `form:"email" json:"email"`
	Phone           string `form:"phone_number" json:"phone_number"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(MinPasswordLength, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(MinPasswordLength, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *OnboardController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		errs := map[string]string{}
		errs["form"] = "Failed to parse form"
		a.Logger.Error("register account parse payload: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.Register, router.ViewContext{
			"errors": errs,
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		errs := FormatValidationErrorToMap(err)
		a.Logger.Error("register account validate payload: ", "error", err)

		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.Register, router.ViewContext{
			"record":     payload,
			"validation": errs,
		})
	}

	req := RegisterAccountMessage{
		FullName: payload.FullName,
		Email:    payload.Email,
		Phone:    payload.Phone,
		Password: payload.Password,
	}

	if _, err := a.Registrations.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("register account error: ", "error", err)

		errs := []string{err.Error()}
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.TextCode == "EMAIL_TAKEN" {
			errs = []string{"An account with that email already exists"}
		}

		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error creating account",
		}).Render(a.Views.Register, router.ViewContext{
			"record": payload,
			"errors": errs,
		})
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Registration received. An administrator will review your account.",
	}).Redirect(a.Routes.Login, fiber.StatusSeeOther)
}

// Me returns the signed-in account's identity snapshot.
func (a *OnboardController) Me(ctx router.Context) error {
	session, err := GetRouterSession(ctx, a.Config.GetContextKey())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, session.Identity)
}

// MeStatus re-reads the account from the store so the caller sees the
// current decision, not the status snapshot baked into the token.
func (a *OnboardController) MeStatus(ctx router.Context) error {
	session, err := GetRouterSession(ctx, a.Config.GetContextKey())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	account, err := a.Repo.Accounts().GetByIdentifier(ctx.Context(), session.GetAccountID())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	body := router.ViewContext{
		"status": account.Status,
	}
	if account.RejectionReason != nil {
		body["rejection_reason"] = *account.RejectionReason
	}

	return ctx.JSON(router.StatusOK, body)
}

// AdminReviewList renders the paginated pending queue, oldest first.
func (a *OnboardController) AdminReviewList(ctx router.Context) error {
	page := queryInt(ctx, "page", 1)
	perPage := queryInt(ctx, "per_page", 25)

	rows, total, err := a.Repo.Accounts().ListPending(ctx.Context(), page, perPage)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.Render(a.Views.AdminReview, router.ViewContext{
		"accounts": rows,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

func (a *OnboardController) AdminApprove(ctx router.Context) error {
	actor, err := a.actorFromRequest(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if _, err := a.Reviews.Approve(ctx.Context(), ApproveAccountMessage{
		AccountID: ctx.Param("id"),
		Actor:     actor,
	}); err != nil {
		return a.renderReviewError(ctx, err)
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Account approved",
	}).Redirect(a.Routes.AdminReview, fiber.StatusSeeOther)
}

// RejectAccountPayload is the rejection form payload
type RejectAccountPayload struct {
	Reason string `form:"reason" json:"reason"`
}

// Validate will validate the payload
func (r RejectAccountPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Reason, validation.Required, validation.Length(1, 1000)),
	)
}

func (a *OnboardController) AdminReject(ctx router.Context) error {
	actor, err := a.actorFromRequest(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	payload := new(RejectAccountPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "A rejection reason is required",
		}).Redirect(a.Routes.AdminReview, fiber.StatusSeeOther)
	}

	if _, err := a.Reviews.Reject(ctx.Context(), RejectAccountMessage{
		AccountID: ctx.Param("id"),
		Reason:    payload.Reason,
		Actor:     actor,
	}); err != nil {
		return a.renderReviewError(ctx, err)
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Account rejected",
	}).Redirect(a.Routes.AdminReview, fiber.StatusSeeOther)
}

// renderReviewError keeps decision failures row-local: the queue page is
// re-rendered with a flash error instead of a dead-end error page, so a row
// decided by someone else just disappears on the refresh.
func (a *OnboardController) renderReviewError(ctx router.Context, err error) error {
	message := "Could not apply decision"

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		switch richErr.TextCode {
		case "INVALID_STATUS_TRANSITION":
			message = "This account was already decided"
		case "EMPTY_REJECTION_REASON":
			message = "A rejection reason is required"
		case "ADMIN_REQUIRED":
			message = "Only administrators can review accounts"
		}
	}

	a.Logger.Error("review decision error: ", "error", err)

	return flash.WithError(ctx, router.ViewContext{
		"error_message":  err.Error(),
		"system_message": message,
	}).Redirect(a.Routes.AdminReview, fiber.StatusSeeOther)
}

func (a *OnboardController) actorFromRequest(ctx router.Context) (ActorRef, error) {
	session, err := GetRouterSession(ctx, a.Config.GetContextKey())
	if err != nil {
		return ActorRef{}, err
	}

	actor := ActorRef{
		ID:   session.GetAccountID(),
		Type: "account",
	}
	if identity := session.GetIdentity(); identity != nil {
		actor.Role = identity.Role
	}

	return actor, nil
}

func queryInt(ctx router.Context, key string, def int) int {
	raw := ctx.Query(key, "")
	if raw == "" {
		return def
	}

	var n int
	if _, err := fmt.Sscanf(raw, "%d", &n); err != nil || n < 1 {
		return def
	}
	return n
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field to message map for templates.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["error"] = err.Error()
	return out
}

func defaultErrHandler(c router.Context, err error) error {
	return c.Render("errors/500", router.ViewContext{
		"message": err.Error(),
	})
}
