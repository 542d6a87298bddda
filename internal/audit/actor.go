package audit

import (
	"context"
	"strings"
)

// SystemActor 无用户上下文时的默认操作人
const SystemActor = "System"

type actorKey struct{}

// WithActor 将当前操作人写入 context（空白字符串视为未设置）
func WithActor(ctx context.Context, actor string) context.Context {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ctx
	}
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom 读取当前操作人，未设置时返回 SystemActor
func ActorFrom(ctx context.Context) string {
	return ActorOr(ctx, SystemActor)
}

// ActorOr 读取当前操作人，未设置时返回 fallback（由配置 audit.system_actor 决定）
func ActorOr(ctx context.Context, fallback string) string {
	if ctx != nil {
		if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
			return actor
		}
	}
	if fallback == "" {
		return SystemActor
	}
	return fallback
}
