package service

import (
	"linkgate/constant"
	"linkgate/internal/model"
	"linkgate/internal/repository"
)

// StateService 会话状态与用户偏好。
// 状态记录外置在 KV（TTL 1 小时），按会话标识逐次显式读写，不依赖进程生命周期
type StateService struct {
	store repository.Store
}

func NewStateService(store repository.Store) *StateService {
	return &StateService{store: store}
}

// GetState 读取会话状态，不存在或已过期返回 nil
func (s *StateService) GetState(conversation string) (*model.DialogState, error) {
	var state model.DialogState
	ok, err := s.store.GetJSON(constant.GetDialogStateKey(conversation), &state)
	if err != nil || !ok {
		return nil, err
	}
	return &state, nil
}

// SetState 写入会话状态并刷新 TTL
func (s *StateService) SetState(conversation string, state *model.DialogState) error {
	return s.store.PutJSONTTL(constant.GetDialogStateKey(conversation), state, constant.DialogStateTTL)
}

// ClearState 清除会话状态
func (s *StateService) ClearState(conversation string) error {
	return s.store.Delete(constant.GetDialogStateKey(conversation))
}

// GetPreferences 读取 QR 偏好，缺省为方形经典配色
func (s *StateService) GetPreferences(owner string) *model.QRPreference {
	var pref model.QRPreference
	ok, err := s.store.GetJSON(constant.GetQRPreferenceKey(owner), &pref)
	if err != nil || !ok {
		return &model.QRPreference{Style: "square", ColorScheme: "classic"}
	}
	return &pref
}

// SetPreferences 持久化 QR 偏好
func (s *StateService) SetPreferences(owner, style, colorScheme string) error {
	return s.store.PutJSON(constant.GetQRPreferenceKey(owner),
		&model.QRPreference{Style: style, ColorScheme: colorScheme})
}
