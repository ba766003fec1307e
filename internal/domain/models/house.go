package models

import "errors"

// House 房屋信息，价格单位为分
type House struct {
	BaseModel
	UserID        uint   `gorm:"not null;index" json:"user_id"`
	AreaID        uint   `gorm:"not null;index" json:"area_id"`
	Title         string `gorm:"type:varchar(64);not null" json:"title"`
	Price         int    `gorm:"default:0" json:"price"`
	Address       string `gorm:"type:varchar(512);default:''" json:"address"`
	RoomCount     int    `gorm:"default:1" json:"room_count"`
	Acreage       int    `gorm:"default:0" json:"acreage"`
	Unit          string `gorm:"type:varchar(32);default:''" json:"unit"` // 几室几厅
	Capacity      int    `gorm:"default:1" json:"capacity"`
	Beds          string `gorm:"type:varchar(64);default:''" json:"beds"`
	Deposit       int    `gorm:"default:0" json:"deposit"`
	MinDays       int    `gorm:"default:1" json:"min_days"`
	MaxDays       int    `gorm:"default:0" json:"max_days"` // 0为不限制
	OrderCount    int    `gorm:"default:0" json:"order_count"`
	IndexImageURL string `gorm:"type:varchar(256);default:''" json:"index_image_url"`

	User       *User        `gorm:"foreignKey:UserID" json:"-"`
	Area       *Area        `gorm:"foreignKey:AreaID" json:"-"`
	Facilities []Facility   `gorm:"many2many:ih_house_facility;constraint:OnDelete:CASCADE" json:"-"`
	Images     []HouseImage `gorm:"foreignKey:HouseID;constraint:OnDelete:CASCADE" json:"-"`
}

func (House) TableName() string {
	return "ih_house_info"
}

// HouseImage 房屋图片
type HouseImage struct {
	BaseModel
	HouseID uint   `gorm:"not null;index" json:"house_id"`
	URL     string `gorm:"type:varchar(256);not null" json:"url"`
}

func (HouseImage) TableName() string {
	return "ih_house_image"
}

// HouseComment 房屋详情中展示的评论
type HouseComment struct {
	Comment  string
	UserName string
	Time     string
}

var (
	ErrHousePrice   = errors.New("房屋价格不能为负")
	ErrHouseMinDays = errors.New("最少入住天数至少为1")
	ErrHouseMaxDays = errors.New("最多入住天数必须为0或不小于最少入住天数")
)

// Validate 校验房屋的价格和入住天数约束
func (h *House) Validate() error {
	if h.Price < 0 || h.Deposit < 0 {
		return ErrHousePrice
	}
	if h.MinDays < 1 {
		return ErrHouseMinDays
	}
	if h.MaxDays != 0 && h.MaxDays < h.MinDays {
		return ErrHouseMaxDays
	}
	return nil
}

// AcceptsDays 入住天数是否在 [min_days, max_days] 内，max_days 为0时不设上限
func (h *House) AcceptsDays(days int) bool {
	if days < h.MinDays {
		return false
	}
	return h.MaxDays == 0 || days <= h.MaxDays
}

// ToBasicDict 列表页使用，需要预加载 User 和 Area
func (h *House) ToBasicDict() map[string]interface{} {
	areaName, avatar := "", ""
	if h.Area != nil {
		areaName = h.Area.Name
	}
	if h.User != nil {
		avatar = h.User.AvatarURL
	}
	return map[string]interface{}{
		"house_id":    h.ID,
		"title":       h.Title,
		"price":       h.Price,
		"area_name":   areaName,
		"img_url":     h.IndexImageURL,
		"room_count":  h.RoomCount,
		"order_count": h.OrderCount,
		"address":     h.Address,
		"user_avatar": avatar,
		"ctime":       h.CreatedAt.Format(DateLayout),
	}
}

// ToFullDict 详情页使用，需要预加载 User、Images 和 Facilities
func (h *House) ToFullDict(comments []HouseComment) map[string]interface{} {
	userName, avatar := "", ""
	if h.User != nil {
		userName = h.User.Name
		avatar = h.User.AvatarURL
	}

	imgURLs := make([]string, 0, len(h.Images))
	for _, img := range h.Images {
		imgURLs = append(imgURLs, img.URL)
	}
	facilities := make([]uint, 0, len(h.Facilities))
	for _, f := range h.Facilities {
		facilities = append(facilities, f.ID)
	}
	commentList := make([]map[string]interface{}, 0, len(comments))
	for _, c := range comments {
		commentList = append(commentList, map[string]interface{}{
			"comment":   c.Comment,
			"user_name": c.UserName,
			"ctime":     c.Time,
		})
	}

	return map[string]interface{}{
		"hid":         h.ID,
		"user_id":     h.UserID,
		"user_name":   userName,
		"user_avatar": avatar,
		"title":       h.Title,
		"price":       h.Price,
		"address":     h.Address,
		"room_count":  h.RoomCount,
		"acreage":     h.Acreage,
		"unit":        h.Unit,
		"capacity":    h.Capacity,
		"beds":        h.Beds,
		"deposit":     h.Deposit,
		"min_days":    h.MinDays,
		"max_days":    h.MaxDays,
		"img_urls":    imgURLs,
		"facilities":  facilities,
		"comments":    commentList,
	}
}
