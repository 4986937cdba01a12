package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// CreateAdminMessage provisions an administrator account: a verified
// user with the admin role plus a capability profile, in one
// transaction. ActorID identifies the operator performing the
// provisioning for the activity trail.
type CreateAdminMessage struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Password      string `json:"password"`
	SuperAdmin    bool   `json:"is_super_admin"`
	ManageUsers   bool   `json:"can_manage_users"`
	ManageContent bool   `json:"can_manage_content"`
	ActorID       string `json:"actor_id"`
	OnResponse    func(resp *CreateAdminResponse)
}

func (e CreateAdminMessage) Type() string { return "admin.create" }

type CreateAdminResponse struct {
	User  *User
	Admin *Admin
}

type CreateAdminHandler struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
}

func NewCreateAdminHandler(repo RepositoryManager) *CreateAdminHandler {
	return &CreateAdminHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

func (h *CreateAdminHandler) WithActivitySink(sink ActivitySink) *CreateAdminHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *CreateAdminHandler) WithLogger(logger Logger) *CreateAdminHandler {
	h.logger = normalizeLogger(logger)
	return h
}

func (h *CreateAdminHandler) Execute(ctx context.Context, event CreateAdminMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during admin creation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *CreateAdminHandler) execute(ctx context.Context, event CreateAdminMessage) error {
	user := &User{}
	admin := &Admin{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = event.Email
		user.Phone = event.Phone
		user.Username = event.Username
		user.Role = RoleAdmin
		// admins are provisioned by an operator, no email round trip
		user.Verified = true

		if user, err = h.repo.Users().RegisterTx(ctx, tx, user); err != nil {
			return err
		}

		admin.UserID = user.ID
		admin.SuperAdmin = event.SuperAdmin
		admin.ManageUsers = event.ManageUsers
		admin.ManageContent = event.ManageContent

		if admin, err = h.repo.Admins().CreateTx(ctx, tx, admin); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create admin profile")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "admin creation transaction failed")
	}

	h.recordActivity(ctx, event.ActorID, user)

	if event.OnResponse != nil {
		event.OnResponse(&CreateAdminResponse{
			User:  user.Public(),
			Admin: admin,
		})
	}

	return nil
}

func (h *CreateAdminHandler) recordActivity(ctx context.Context, actorID string, user *User) {
	actor := ActorRef{ID: actorID, Type: "admin"}
	if actorID == "" {
		actor = ActorRef{ID: user.ID.String(), Type: "system"}
	}

	event := ActivityEvent{
		EventType: ActivityEventAdminCreated,
		Actor:     actor,
		UserID:    user.ID.String(),
		Metadata: map[string]any{
			"email": user.Email,
		},
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.logger.Warn("activity sink error during admin creation: %v", err)
	}
}
