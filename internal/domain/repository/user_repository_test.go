package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/flowerfire37/ihome/internal/error/bizerr"
	"github.com/flowerfire37/ihome/internal/test/testdb"
)

func TestSetRealNameOnce(t *testing.T) {
	db := testdb.Open(t)
	seed(t, db)
	repo := NewUserRepository(db)
	ctx := context.Background()

	if err := repo.SetRealName(ctx, renterA, "张三", "11010119900307123X"); err != nil {
		t.Fatal(err)
	}
	err := repo.SetRealName(ctx, renterA, "李四", "110101199003071234")
	if !errors.Is(err, bizerr.ErrRealNameAlreadySet) {
		t.Errorf("重复认证 err = %v", err)
	}
	u, err := repo.FindByID(ctx, renterA)
	if err != nil {
		t.Fatal(err)
	}
	if u.RealName != "张三" || u.IDCard != "11010119900307123X" {
		t.Errorf("实名信息被覆盖: %s %s", u.RealName, u.IDCard)
	}

	if err := repo.SetRealName(ctx, 999, "王五", "110101199003071234"); !errors.Is(err, bizerr.ErrUserNotFound) {
		t.Errorf("用户不存在 err = %v", err)
	}
}

func TestSetRealNameConcurrent(t *testing.T) {
	db := testdb.Open(t)
	seed(t, db)
	repo := NewUserRepository(db)
	ctx := context.Background()

	names := []string{"张三", "李四", "王五", "赵六"}
	errs := make([]error, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			errs[i] = repo.SetRealName(ctx, renterB, name, "11010119900307123X")
		}(i, name)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case !errors.Is(err, bizerr.ErrRealNameAlreadySet):
			t.Errorf("意外错误: %v", err)
		}
	}
	if ok != 1 {
		t.Errorf("实名认证应只成功一次, 实际 %d", ok)
	}
}

func TestUpdateFieldsAndNameExists(t *testing.T) {
	db := testdb.Open(t)
	seed(t, db)
	repo := NewUserRepository(db)
	ctx := context.Background()

	if err := repo.UpdateFields(ctx, renterA, map[string]interface{}{"name": "alice2"}); err != nil {
		t.Fatal(err)
	}
	if exists, _ := repo.NameExists(ctx, "alice2", renterB); !exists {
		t.Error("NameExists 应找到新用户名")
	}
	if exists, _ := repo.NameExists(ctx, "alice2", renterA); exists {
		t.Error("NameExists 应排除自己")
	}
	if err := repo.UpdateFields(ctx, 999, map[string]interface{}{"name": "x"}); !errors.Is(err, bizerr.ErrUserNotFound) {
		t.Errorf("err = %v", err)
	}
}
