package models

// User 用户表
type User struct {
	BaseModel
	Name         string `gorm:"type:varchar(32);uniqueIndex;not null" json:"name"`
	PasswordHash string `gorm:"column:password_hash;type:varchar(128);not null" json:"-"` // 只保存bcrypt哈希
	Mobile       string `gorm:"type:varchar(11);uniqueIndex;not null" json:"mobile"`
	RealName     string `gorm:"type:varchar(32)" json:"real_name,omitempty"`
	IDCard       string `gorm:"column:id_card;type:varchar(20)" json:"id_card,omitempty"`
	AvatarURL    string `gorm:"type:varchar(256)" json:"avatar_url"`
}

func (User) TableName() string {
	return "ih_user_profile"
}

// ToDict 返回用户信息
func (u *User) ToDict() map[string]interface{} {
	return map[string]interface{}{
		"user_id":     u.ID,
		"name":        u.Name,
		"mobile":      u.Mobile,
		"avatar_url":  u.AvatarURL,
		"create_time": u.CreatedAt.Format(DateTimeLayout),
	}
}

// ToAuthDict 返回实名认证信息
func (u *User) ToAuthDict() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   u.ID,
		"real_name": u.RealName,
		"id_card":   u.IDCard,
	}
}

// DisplayName 评论中展示的名字，未改名(名字仍是手机号)的用户匿名
func (u *User) DisplayName() string {
	if u.Name == u.Mobile {
		return "匿名用户"
	}
	return u.Name
}
