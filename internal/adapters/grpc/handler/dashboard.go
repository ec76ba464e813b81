package handler

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ogurasousui/taskvault/internal/core/access"
	"github.com/ogurasousui/taskvault/internal/core/dashboard"
	"github.com/ogurasousui/taskvault/internal/core/employee"
	"github.com/ogurasousui/taskvault/internal/core/identity"
	"github.com/ogurasousui/taskvault/internal/core/penalty"
	"github.com/ogurasousui/taskvault/internal/core/role"
	"github.com/ogurasousui/taskvault/internal/core/task"
	"github.com/ogurasousui/taskvault/internal/core/view"
)

// 呼び出し元の情報を運ぶメタデータのキーです。
const (
	MetadataCallerID   = "x-caller-id"
	MetadataSessionID  = "x-session-id"
	MetadataStartParam = "x-start-param"
	MetadataLocation   = "x-location"
)

var _ DashboardServer = (*DashboardHandler)(nil)

// DashboardHandler は DashboardService の gRPC 実装です。
type DashboardHandler struct {
	sessions *dashboard.Service
	gateway  *dashboard.Gateway
	location *time.Location
	logger   *zap.Logger
}

// Option は DashboardHandler の任意設定です。
type Option func(*DashboardHandler)

// WithLocation は日付指定を解釈するタイムゾーンを設定します。
func WithLocation(loc *time.Location) Option {
	return func(h *DashboardHandler) {
		if loc != nil {
			h.location = loc
		}
	}
}

// WithLogger はロガーを設定します。
func WithLogger(l *zap.Logger) Option {
	return func(h *DashboardHandler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewDashboardHandler は DashboardHandler を生成します。
func NewDashboardHandler(sessions *dashboard.Service, gateway *dashboard.Gateway, opts ...Option) *DashboardHandler {
	h := &DashboardHandler{
		sessions: sessions,
		gateway:  gateway,
		location: time.UTC,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// authenticate はメタデータから呼び出し元を認証し、セッションを格納したコンテキストを返します。
func (h *DashboardHandler) authenticate(ctx context.Context) (context.Context, access.Session, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	sess, err := h.sessions.Authenticate(ctx, dashboard.AuthInput{
		Sources: identity.Sources{
			LaunchParam: firstMetadata(md, MetadataStartParam),
			Location:    firstMetadata(md, MetadataLocation),
		},
		CallerID:  firstMetadata(md, MetadataCallerID),
		SessionID: firstMetadata(md, MetadataSessionID),
	})
	if err != nil {
		return ctx, access.Session{}, toStatusError(err)
	}
	return access.WithSession(ctx, sess), sess, nil
}

func firstMetadata(md metadata.MD, key string) string {
	if values := md.Get(key); len(values) > 0 {
		return values[0]
	}
	return ""
}

func invalidArgument(err error) error {
	return status.Error(codes.InvalidArgument, err.Error())
}

// ResolveSession は呼び出し元のグループとロールを返します。
func (h *DashboardHandler) ResolveSession(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	_, sess, err := h.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"session": encodeSession(sess)})
}

// ListCatalog は懲戒テンプレートの一覧を返します。
func (h *DashboardHandler) ListCatalog(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return toStruct(encodeCatalog(penalty.Catalog()))
}

// CreateEmployee は社員を作成します。
func (h *DashboardHandler) CreateEmployee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ctx, _, err := h.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	f := requestFields(req)
	fullName, err := f.str("fullName")
	if err != nil {
		return nil, invalidArgument(err)
	}
	position, err := f.optStr("position")
	if err != nil {
		return nil, invalidArgument(err)
	}
	premium, err := f.optNumber("basePremium")
	if err != nil {
		return nil, invalidArgument(err)
	}
	telegramID, err := f.str("telegramId")
	if err != nil {
		return nil, invalidArgument(err)
	}

	created, err := h.gateway.CreateEmployee(ctx, employee.CreateEmployeeInput{
		FullName:    fullName,
		Position:    position,
		BasePremium: premium,
		TelegramID:  telegramID,
	})
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"employee": encodeEmployee(created)})
}

// UpdateEmployee は社員情報を更新します。
func (h *DashboardHandler) UpdateEmployee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ctx, _, err := h.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	f := requestFields(req)
	in := employee.UpdateEmployeeInput{}
	if in.ID, err = f.str("id"); err != nil {
		return nil, invalidArgument(err)
	}
	if in.FullName, err = f.optStr("fullName"); err != nil {
		return nil, invalidArgument(err)
	}
	if in.Position, err = f.optStr("position"); err != nil {
		return nil, invalidArgument(err)
	}
	if in.BasePremium, err = f.optNumber("basePremium"); err != nil {
		return nil, invalidArgument(err)
	}
	if in.IsActive, err = f.optBool("isActive"); err != nil {
		return nil, invalidArgument(err)
	}
	if in.TelegramID, err = f.optStr("telegramId"); err != nil {
		return nil, invalidArgument(err)
	}

	updated, err := h.gateway.UpdateEmployee(ctx, in)
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"employee": encodeEmployee(updated)})
}

// CreateTask はタスクを作成します。
func (h *DashboardHandler) CreateTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ctx, _, err := h.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	f := requestFields(req)
	title, err := f.str("title")
	if err != nil {
		return nil, invalidArgument(err)
	}
	employeeID, err := f.str("employeeId")
	if err != nil {
		return nil, invalidArgument(err)
	}

	created, err := h.gateway.CreateTask(ctx, task.CreateTaskInput{Title: title, EmployeeID: employeeID})
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"task": encodeTask(created)})
}

// ToggleTask はタスクの完了状態を反転します。completed には画面上の現在値を渡します。
func (h *DashboardHandler) ToggleTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ctx, _, err := h.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	f := requestFields(req)
	id, err := f.str("id")
	if err != nil {
		return nil, invalidArgument(err)
	}
	current, err := f.boolean("completed")
	if err != nil {
		return nil, invalidArgument(err)
	}

	if err := h.gateway.ToggleTask(ctx, task.ToggleTaskInput{ID: id, Current: current}); err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{})
}

// DeleteTask はタスクを削除します。
func (h *DashboardHandler) DeleteTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ctx, _, err := h.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	id, err := requestFields(req).str("id")
	if err != nil {
		return nil, invalidArgument(err)
	}
	if err := h.gateway.DeleteTask(ctx, task.DeleteTaskInput{ID: id}); err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{})
}

// CreatePenalty はテンプレートから懲戒を作成します。
func (h *DashboardHandler) CreatePenalty(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ctx, _, err := h.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	f := requestFields(req)
	in := penalty.CreatePenaltyInput{}
	if in.CatalogEntryID, err = f.str("catalogEntryId"); err != nil {
		return nil, invalidArgument(err)
	}
	if in.EmployeeID, err = f.str("employeeId"); err != nil {
		return nil, invalidArgument(err)
	}
	if in.Comment, err = f.str("comment"); err != nil {
		return nil, invalidArgument(err)
	}

	created, err := h.gateway.CreatePenalty(ctx, in)
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"penalty": encodePenalty(created)})
}

// DeletePenalty は懲戒を削除します。
func (h *DashboardHandler) DeletePenalty(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ctx, _, err := h.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	id, err := requestFields(req).str("id")
	if err != nil {
		return nil, invalidArgument(err)
	}
	if err := h.gateway.DeletePenalty(ctx, penalty.DeletePenaltyInput{ID: id}); err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{})
}

// SwitchRole はセッション内のロールを切り替えます。
func (h *DashboardHandler) SwitchRole(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ctx, sess, err := h.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := requestFields(req).str("role")
	if err != nil {
		return nil, invalidArgument(err)
	}
	r, ok := role.Parse(raw)
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "unknown role %q", raw)
	}

	sess, err = h.sessions.SwitchRole(ctx, sess, r)
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"session": encodeSession(sess)})
}

// ClearRole はロールの切り替えを解除します。
func (h *DashboardHandler) ClearRole(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	ctx, sess, err := h.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	sess, err = h.sessions.ClearRole(ctx, sess)
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"session": encodeSession(sess)})
}

// WatchBoard はボードを開き、ビューが更新されるたびにスナップショットを送信します。
// 送信が追いつかない場合は古いスナップショットを破棄し、最新のものだけを送ります。
func (h *DashboardHandler) WatchBoard(req *structpb.Struct, stream grpc.ServerStream) error {
	ctx, sess, err := h.authenticate(stream.Context())
	if err != nil {
		return err
	}

	f := requestFields(req)
	date, err := f.date("date", h.location)
	if err != nil {
		return invalidArgument(err)
	}
	employeeID, err := f.str("employeeId")
	if err != nil {
		return invalidArgument(err)
	}

	updates := make(chan view.Snapshot, 1)
	handle, err := h.sessions.Open(ctx, dashboard.OpenInput{Date: date, EmployeeID: strings.TrimSpace(employeeID)}, func(s view.Snapshot) {
		select {
		case <-updates:
		default:
		}
		updates <- s
	})
	if err != nil {
		return toStatusError(err)
	}
	defer handle.Close()

	h.logger.Debug("board opened",
		zap.String("session_id", sess.ID),
		zap.String("role", string(sess.EffectiveRole())),
	)

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap := <-updates:
			msg, err := toStruct(encodeSnapshot(snap))
			if err != nil {
				return err
			}
			if err := stream.SendMsg(msg); err != nil {
				return err
			}
		}
	}
}
