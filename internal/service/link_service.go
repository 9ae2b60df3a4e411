package service

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"linkgate/constant"
	"linkgate/internal/apperrors"
	"linkgate/internal/model"
	"linkgate/internal/repository"
	"linkgate/pkg/utils"
)

// 短码生成碰撞重试上限
const maxCodeAttempts = 5

// ResolveState 解析结果状态机
type ResolveState int

const (
	StateNotFound ResolveState = iota
	StateActive
	StateExpired
	StateExhausted
)

func (s ResolveState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateExpired:
		return "expired"
	case StateExhausted:
		return "exhausted"
	default:
		return "not_found"
	}
}

// Resolution resolve 的完整返回
type Resolution struct {
	State ResolveState
	Link  *model.Link
}

// CreateOptions 创建短链的可选项
type CreateOptions struct {
	ExpiresAt int64 // 毫秒时间戳，0 表示不过期
	MaxClicks int64 // 0 表示不限
}

// LinkService 短链注册与解析
type LinkService struct {
	store repository.Store
	now   func() time.Time
	// genCode 可注入，测试短码碰撞路径时替换
	genCode func() string
}

func NewLinkService(store repository.Store) *LinkService {
	return &LinkService{
		store:   store,
		now:     time.Now,
		genCode: func() string { return GenerateCode(CodeLength) },
	}
}

// Create 创建重定向短链，短码碰撞时重试，重试耗尽返回 CodeSpaceExhausted
func (s *LinkService) Create(targetURL, owner string, opts CreateOptions) (string, *model.Link, error) {
	if err := utils.ValidateTargetURL(targetURL); err != nil {
		return "", nil, apperrors.InvalidInputError(err.Error())
	}

	code, err := s.allocateCode()
	if err != nil {
		return "", nil, err
	}

	link := &model.Link{
		Type:      model.TypeRedirect,
		TargetURL: targetURL,
		CreatedBy: owner,
		CreatedAt: s.now().UnixMilli(),
		ExpiresAt: opts.ExpiresAt,
		MaxClicks: opts.MaxClicks,
	}

	if err := s.store.PutJSON(constant.GetLinkKey(code), link); err != nil {
		return "", nil, apperrors.SystemError("Failed to store link: " + err.Error())
	}
	if err := s.appendOwnerIndex(owner, code); err != nil {
		return "", nil, err
	}

	return code, link, nil
}

// CreatePage 创建 bio 页实体
func (s *LinkService) CreatePage(owner string, page model.PageContent) (string, *model.Link, error) {
	if page.Title == "" {
		return "", nil, apperrors.InvalidInputError("error.page_title_required")
	}
	for _, b := range page.Buttons {
		if err := utils.ValidateTargetURL(b.URL); err != nil {
			return "", nil, apperrors.InvalidInputError(err.Error())
		}
	}
	if page.Theme == "" {
		page.Theme = "light"
	}
	if page.Buttons == nil {
		page.Buttons = []model.PageButton{}
	}

	code, err := s.allocateCode()
	if err != nil {
		return "", nil, err
	}

	link := &model.Link{
		Type:      model.TypePage,
		Page:      &page,
		CreatedBy: owner,
		CreatedAt: s.now().UnixMilli(),
	}

	if err := s.store.PutJSON(constant.GetLinkKey(code), link); err != nil {
		return "", nil, apperrors.SystemError("Failed to store page: " + err.Error())
	}
	if err := s.appendOwnerIndex(owner, code); err != nil {
		return "", nil, err
	}

	return code, link, nil
}

func (s *LinkService) allocateCode() (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := s.genCode()
		existing, err := s.getLink(code)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return code, nil
		}
	}
	return "", apperrors.CodeSpaceExhaustedError()
}

// Resolve 状态机：过期判断先于次数判断，过期惰性求值，无后台清理
func (s *LinkService) Resolve(code string) (*Resolution, error) {
	link, err := s.getLink(code)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return &Resolution{State: StateNotFound}, nil
	}

	if link.ExpiresAt > 0 && s.now().UnixMilli() > link.ExpiresAt {
		return &Resolution{State: StateExpired, Link: link}, nil
	}

	if link.MaxClicks > 0 && link.CurrentClicks >= link.MaxClicks {
		return &Resolution{State: StateExhausted, Link: link}, nil
	}

	return &Resolution{State: StateActive, Link: link}, nil
}

// RecordHit 限次链接在重定向前同步写回计数，收窄并发越限窗口；
// 不限次链接不走此路径，点击量由统计模块记录。code 不存在时为空操作。
func (s *LinkService) RecordHit(code string) error {
	link, err := s.getLink(code)
	if err != nil || link == nil {
		return err
	}
	if link.MaxClicks <= 0 {
		return nil
	}

	link.CurrentClicks++
	return s.store.PutJSON(constant.GetLinkKey(code), link)
}

// LinkPatch 归属校验后的字段修改；nil 字段表示不修改
type LinkPatch struct {
	TargetURL         *string
	Title             *string
	Description       *string
	Theme             *string
	AddButton         *model.PageButton
	RemoveButtonIndex *int
}

// Edit 修改实体字段。已过期/已耗尽的实体仍允许编辑
func (s *LinkService) Edit(code, owner string, patch LinkPatch) error {
	link, err := s.getLink(code)
	if err != nil {
		return err
	}
	if link == nil {
		return apperrors.NotFoundError("error.link_not_found")
	}
	if link.CreatedBy != owner {
		return apperrors.OwnershipDeniedError("error.not_owner")
	}

	if patch.TargetURL != nil {
		if link.Type != model.TypeRedirect {
			return apperrors.InvalidInputError("error.not_redirect_link")
		}
		if err := utils.ValidateTargetURL(*patch.TargetURL); err != nil {
			return apperrors.InvalidInputError(err.Error())
		}
		link.TargetURL = *patch.TargetURL
	}

	if patch.Title != nil || patch.Description != nil || patch.Theme != nil ||
		patch.AddButton != nil || patch.RemoveButtonIndex != nil {
		if link.Type != model.TypePage || link.Page == nil {
			return apperrors.InvalidInputError("error.not_page_link")
		}
		if patch.Title != nil {
			link.Page.Title = *patch.Title
		}
		if patch.Description != nil {
			link.Page.Description = *patch.Description
		}
		if patch.Theme != nil {
			link.Page.Theme = *patch.Theme
		}
		if patch.AddButton != nil {
			if err := utils.ValidateTargetURL(patch.AddButton.URL); err != nil {
				return apperrors.InvalidInputError(err.Error())
			}
			link.Page.Buttons = append(link.Page.Buttons, *patch.AddButton)
		}
		if patch.RemoveButtonIndex != nil {
			i := *patch.RemoveButtonIndex
			if i < 0 || i >= len(link.Page.Buttons) {
				return apperrors.InvalidInputError("error.button_index_out_of_range")
			}
			link.Page.Buttons = append(link.Page.Buttons[:i], link.Page.Buttons[i+1:]...)
		}
	}

	if err := s.store.PutJSON(constant.GetLinkKey(code), link); err != nil {
		return apperrors.SystemError("Failed to update link: " + err.Error())
	}
	return nil
}

// Delete 归属校验后删除实体并从用户索引移除
func (s *LinkService) Delete(code, owner string) error {
	link, err := s.getLink(code)
	if err != nil {
		return err
	}
	if link == nil {
		return apperrors.NotFoundError("error.link_not_found")
	}
	if link.CreatedBy != owner {
		return apperrors.OwnershipDeniedError("error.not_owner")
	}

	if err := s.store.Delete(constant.GetLinkKey(code)); err != nil {
		return apperrors.SystemError("Failed to delete link: " + err.Error())
	}
	return s.removeOwnerIndex(owner, code)
}

// ListByOwner 返回用户名下全部短码
func (s *LinkService) ListByOwner(owner string) ([]string, error) {
	var idx model.OwnerIndex
	ok, err := s.store.GetJSON(constant.GetOwnerIndexKey(owner), &idx)
	if err != nil {
		return nil, apperrors.SystemError("Failed to read owner index: " + err.Error())
	}
	if !ok || idx.Links == nil {
		return []string{}, nil
	}
	return idx.Links, nil
}

// getLink 读取实体，兼容旧格式：裸 code → URL 字符串，首次读取时惰性升级，
// 旧 key 保留不删。脏记录按缺失降级；存储传输故障原样上抛，不得伪装成 NotFound
func (s *LinkService) getLink(code string) (*model.Link, error) {
	var link model.Link
	ok, err := s.store.GetJSON(constant.GetLinkKey(code), &link)
	if err != nil {
		if !errors.Is(err, repository.ErrBadRecord) {
			return nil, apperrors.SystemError("Failed to read link: " + err.Error())
		}
		zap.L().Warn("Discarding undecodable link record",
			zap.String("code", code),
			zap.Error(err))
	}
	if ok {
		return &link, nil
	}

	legacyURL, ok, err := s.store.GetString(constant.GetLegacyKey(code))
	if err != nil {
		return nil, apperrors.SystemError("Failed to read legacy link: " + err.Error())
	}
	if !ok {
		return nil, nil
	}
	if utils.ValidateTargetURL(legacyURL) != nil {
		return nil, nil
	}

	upgraded := &model.Link{
		Type:      model.TypeRedirect,
		TargetURL: legacyURL,
		CreatedAt: s.now().UnixMilli(),
	}
	if err := s.store.PutJSON(constant.GetLinkKey(code), upgraded); err != nil {
		zap.L().Warn("Failed to upgrade legacy link",
			zap.String("code", code),
			zap.Error(err))
	}
	return upgraded, nil
}

func (s *LinkService) appendOwnerIndex(owner, code string) error {
	key := constant.GetOwnerIndexKey(owner)

	var idx model.OwnerIndex
	if _, err := s.store.GetJSON(key, &idx); err != nil {
		return apperrors.SystemError("Failed to read owner index: " + err.Error())
	}
	if !idx.Contains(code) {
		idx.Links = append(idx.Links, code)
	}
	if err := s.store.PutJSON(key, &idx); err != nil {
		return apperrors.SystemError("Failed to write owner index: " + err.Error())
	}
	return nil
}

func (s *LinkService) removeOwnerIndex(owner, code string) error {
	key := constant.GetOwnerIndexKey(owner)

	var idx model.OwnerIndex
	ok, err := s.store.GetJSON(key, &idx)
	if err != nil || !ok {
		return nil
	}

	kept := idx.Links[:0]
	for _, c := range idx.Links {
		if c != code {
			kept = append(kept, c)
		}
	}
	idx.Links = kept
	return s.store.PutJSON(key, &idx)
}
