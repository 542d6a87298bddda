package repository

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// TxFromContext 取出当前事务；不在事务中返回 nil
func TxFromContext(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return nil
}

// ContextWithTx 将事务放入 context，供 Guard 内的仓储读取使用
func ContextWithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}
