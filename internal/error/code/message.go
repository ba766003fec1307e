package code

// 错误码消息映射
var codeMessageMap = map[string]string{
	OK: "成功",

	// 数据相关错误码
	DBERR:     "数据库查询错误",
	NODATA:    "无数据",
	DATAEXIST: "数据已存在",
	DATAERR:   "数据错误",

	// 用户相关错误码
	SESSIONERR: "用户未登录",
	LOGINERR:   "用户登录失败",
	PARAMERR:   "参数错误",
	USERERR:    "用户不存在或未激活",
	ROLEERR:    "用户身份错误",
	PWDERR:     "密码错误",

	// 请求相关错误码
	REQERR: "非法请求或请求次数受限",
	IPERR:  "IP受限",

	// 外部依赖错误码
	THIRDERR: "第三方系统错误",
	IOERR:    "文件读写错误",

	// 服务器错误码
	SERVERERR: "内部错误",
	UNKOWNERR: "未知错误",
}

// 错误码HTTP状态码映射
var codeStatusMap = map[string]int{
	OK: StatusOK,

	// 数据相关错误码
	DBERR:     StatusInternalServerError,
	NODATA:    StatusNotFound,
	DATAEXIST: StatusConflict,
	DATAERR:   StatusConflict,

	// 用户相关错误码
	SESSIONERR: StatusUnauthorized,
	LOGINERR:   StatusUnauthorized,
	PARAMERR:   StatusBadRequest,
	USERERR:    StatusBadRequest,
	ROLEERR:    StatusForbidden,
	PWDERR:     StatusUnauthorized,

	// 请求相关错误码
	REQERR: StatusTooManyRequests,
	IPERR:  StatusTooManyRequests,

	// 外部依赖错误码
	THIRDERR: StatusBadGateway,
	IOERR:    StatusInternalServerError,

	// 服务器错误码
	SERVERERR: StatusInternalServerError,
	UNKOWNERR: StatusInternalServerError,
}

// GetMessage 获取错误码对应的消息
func GetMessage(errno string) string {
	if msg, ok := codeMessageMap[errno]; ok {
		return msg
	}
	return codeMessageMap[UNKOWNERR]
}

// GetStatus 获取错误码对应的HTTP状态码
func GetStatus(errno string) int {
	if status, ok := codeStatusMap[errno]; ok {
		return status
	}
	return StatusInternalServerError
}
