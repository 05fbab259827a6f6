package logger

import (
	"go.uber.org/zap"
)

// Newは環境に合わせたzapロガーを返す。
// devはコンソール向け、それ以外はJSON。
func New(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
