package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"license-key-server/internal/model"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetSyncService 将卡密记录镜像到 Google Sheets，方便运营查看。
// 同步是尽力而为的：失败只记日志，不影响业务流程。
type SheetSyncService struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
}

func NewSheetSyncService(enableSync bool, credentialPath, spreadsheetID, sheetName string) (*SheetSyncService, error) {
	if !enableSync {
		return nil, nil
	}

	ctx := context.Background()

	// 读取凭证文件
	b, err := os.ReadFile(credentialPath)
	if err != nil {
		return nil, err
	}

	// 使用服务账号授权
	creds, err := google.CredentialsFromJSON(ctx, b, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("无法加载凭证: %v", err)
	}

	srv, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, err
	}

	return &SheetSyncService{
		service:       srv,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// SyncLicense 将一条卡密记录写入表格：已存在则更新对应行，否则追加。
func (s *SheetSyncService) SyncLicense(lic *model.License) error {
	if s == nil {
		return nil
	}

	// 查找该 Key 是否已有对应行
	rangeToSearch := fmt.Sprintf("%s!A2:A", s.sheetName)
	keyResp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, rangeToSearch).Do()
	if err != nil {
		log.Printf("查询Sheet数据失败: %v", err)
		return fmt.Errorf("查询Sheet数据失败: %v", err)
	}

	var rowIndex int
	found := false
	for i, row := range keyResp.Values {
		if len(row) > 0 && row[0] == lic.Key {
			found = true
			rowIndex = i + 2 // +2因为A2开始且数组从0开始
			break
		}
	}

	values := &sheets.ValueRange{
		Values: [][]interface{}{licenseRow(lic)},
	}

	if found {
		updateRange := fmt.Sprintf("%s!A%d:F%d", s.sheetName, rowIndex, rowIndex)
		_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, updateRange, values).
			ValueInputOption("RAW").Do()
	} else {
		appendRange := fmt.Sprintf("%s!A2:F", s.sheetName)
		_, err = s.service.Spreadsheets.Values.Append(s.spreadsheetID, appendRange, values).
			ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Do()
	}
	if err != nil {
		log.Printf("同步卡密到Sheet失败: %v", err)
		return fmt.Errorf("同步卡密到Sheet失败: %v", err)
	}

	return nil
}

func licenseRow(lic *model.License) []interface{} {
	hwid := ""
	if lic.Hwid != nil {
		hwid = *lic.Hwid
	}
	expiresAt := ""
	if lic.ExpiresAt != nil {
		expiresAt = lic.ExpiresAt.UTC().Format(time.RFC3339)
	}
	durationDays := ""
	if lic.DurationDays != nil {
		durationDays = fmt.Sprintf("%d", *lic.DurationDays)
	}
	return []interface{}{
		lic.Key,
		lic.ScriptType,
		hwid,
		expiresAt,
		durationDays,
		lic.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
