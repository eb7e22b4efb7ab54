// Package translate 封装腾讯云机器翻译，用于合成前的文本预翻译。
package translate

import (
	"context"
	"fmt"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	tmt "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/tmt/v20180321"

	"github.com/iabetor/voxkit/internal/config"
	"github.com/iabetor/voxkit/internal/logger"
)

// Client 腾讯云机器翻译客户端。
type Client struct {
	client *tmt.Client
}

// 语言代码映射（用户友好 -> 腾讯云代码）
var langCodeMap = map[string]string{
	"中文":     "zh",
	"汉语":     "zh",
	"英文":     "en",
	"英语":     "en",
	"日文":     "ja",
	"日语":     "ja",
	"韩文":     "ko",
	"韩语":     "ko",
	"法语":     "fr",
	"德语":     "de",
	"西班牙语": "es",
	"俄语":     "ru",
	"葡萄牙语": "pt",
	"意大利语": "it",
	"越南语":   "vi",
	"泰语":     "th",
	"阿拉伯语": "ar",
}

// NormalizeLang 把用户友好的语言名转换为腾讯云语言代码。
// 已是代码或未知名称时原样返回。
func NormalizeLang(lang string) string {
	if code, ok := langCodeMap[lang]; ok {
		return code
	}
	return lang
}

// New 创建翻译客户端。
func New(cfg config.TranslateConfig) (*Client, error) {
	if cfg.SecretID == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("缺少腾讯云凭证 (secret_id / secret_key)")
	}

	credential := common.NewCredential(cfg.SecretID, cfg.SecretKey)
	cpf := profile.NewClientProfile()
	cpf.HttpProfile.Endpoint = "tmt.tencentcloudapi.com"

	region := cfg.Region
	if region == "" {
		region = "ap-guangzhou"
	}

	client, err := tmt.NewClient(credential, region, cpf)
	if err != nil {
		return nil, fmt.Errorf("创建翻译客户端失败: %w", err)
	}

	logger.Info("[translate] 翻译客户端已初始化")
	return &Client{client: client}, nil
}

// Translate 把文本翻译到目标语言，源语言自动检测。
func (c *Client) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if text == "" {
		return "", fmt.Errorf("翻译文本不能为空")
	}

	target := NormalizeLang(targetLang)

	request := tmt.NewTextTranslateRequest()
	request.SourceText = common.StringPtr(text)
	request.Source = common.StringPtr("auto")
	request.Target = common.StringPtr(target)
	request.ProjectId = common.Int64Ptr(0)

	response, err := c.client.TextTranslateWithContext(ctx, request)
	if err != nil {
		return "", fmt.Errorf("翻译请求失败: %w", err)
	}

	if response.Response == nil || response.Response.TargetText == nil {
		return "", fmt.Errorf("翻译响应为空")
	}

	result := *response.Response.TargetText
	detectedSource := ""
	if response.Response.Source != nil {
		detectedSource = *response.Response.Source
	}

	logger.Debugf("[translate] 翻译完成: %s -> %s, 结果: %s", detectedSource, target, result)
	return result, nil
}
