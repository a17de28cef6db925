// Package types defines the Memo entity, the MemoStorage and Output
// interfaces, the deployment Config, and the coded error types shared by the
// validation pipeline, the storage engine, and the memo service.
package types
