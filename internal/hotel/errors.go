package hotel

import "errors"

var (
	ErrUnknownHotel   = errors.New("该城市中没有匹配的酒店")
	ErrAmbiguousHotel = errors.New("匹配到多家酒店，请提供更完整的名称")
)
