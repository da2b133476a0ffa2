package store

import (
	"errors"
	"fmt"
)

// ErrSchemaMismatch 既有库的表结构与预期契约不符，refresh 拒绝触碰
var ErrSchemaMismatch = errors.New("store schema mismatch")

// SchemaError 指明缺失或不符的表
type SchemaError struct {
	Table  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema mismatch on table %q: %s", e.Table, e.Reason)
}

func (e *SchemaError) Unwrap() error {
	return ErrSchemaMismatch
}

// CreateError 建库失败。目标路径保证未被污染
type CreateError struct {
	Path string
	Err  error
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("create store %s: %v", e.Path, e.Err)
}

func (e *CreateError) Unwrap() error {
	return e.Err
}

// WriteError refresh 写入失败，事务已回滚
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("store write (%s): %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
