package validation

import (
	"errors"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const DateLayout = "2006-01-02"

var (
	once    sync.Once
	initErr error
)

// Register は gin の binding に独自タグを登録する。何度呼んでもよい。
//   - ymd: "YYYY-MM-DD"
func Register() error {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			initErr = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		initErr = v.RegisterValidation("ymd", isYMD)
	})
	return initErr
}

func isYMD(fl validator.FieldLevel) bool {
	_, err := time.Parse(DateLayout, fl.Field().String())
	return err == nil
}
