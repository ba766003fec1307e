package code

// HTTP状态码.
const (
	// StatusOK - 200: 成功.
	StatusOK = 200
	// StatusBadRequest - 400: 请求参数错误.
	StatusBadRequest = 400
	// StatusUnauthorized - 401: 未授权.
	StatusUnauthorized = 401
	// StatusForbidden - 403: 禁止访问.
	StatusForbidden = 403
	// StatusNotFound - 404: 资源不存在.
	StatusNotFound = 404
	// StatusConflict - 409: 资源冲突.
	StatusConflict = 409
	// StatusTooManyRequests - 429: 请求过多.
	StatusTooManyRequests = 429
	// StatusInternalServerError - 500: 服务器内部错误.
	StatusInternalServerError = 500
	// StatusBadGateway - 502: 第三方服务错误.
	StatusBadGateway = 502
)

// 通用错误码, 前端按字符串比较.
const (
	// OK - 200: 成功.
	OK = "0"
)

// 数据相关错误码 (40xx).
const (
	// DBERR - 500: 数据库查询错误.
	DBERR = "4001"
	// NODATA - 404: 无数据.
	NODATA = "4002"
	// DATAEXIST - 409: 数据已存在.
	DATAEXIST = "4003"
	// DATAERR - 409: 数据错误.
	DATAERR = "4004"
)

// 用户相关错误码 (41xx).
const (
	// SESSIONERR - 401: 用户未登录.
	SESSIONERR = "4101"
	// LOGINERR - 401: 用户登录失败.
	LOGINERR = "4102"
	// PARAMERR - 400: 参数错误.
	PARAMERR = "4103"
	// USERERR - 400: 用户不存在或未激活.
	USERERR = "4104"
	// ROLEERR - 403: 用户身份错误.
	ROLEERR = "4105"
	// PWDERR - 401: 密码错误.
	PWDERR = "4106"
)

// 请求相关错误码 (42xx).
const (
	// REQERR - 429: 非法请求或请求次数受限.
	REQERR = "4201"
	// IPERR - 429: IP受限.
	IPERR = "4202"
)

// 外部依赖错误码 (43xx).
const (
	// THIRDERR - 502: 第三方系统错误.
	THIRDERR = "4301"
	// IOERR - 500: 文件读写错误.
	IOERR = "4302"
)

// 服务器错误码 (45xx).
const (
	// SERVERERR - 500: 内部错误.
	SERVERERR = "4500"
	// UNKOWNERR - 500: 未知错误.
	UNKOWNERR = "4501"
)
