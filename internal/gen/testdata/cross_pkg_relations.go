package testdata

import amodel "github.com/example/auth/model"

type EndUser struct {
	ID            int                    `rest:"id,primaryKey"`
	Name          string                 `rest:"name"`
	OAuthAccounts []*amodel.OAuthAccount `rel:"has_many,foreign_key:end_user_id"`
	Email         UserEmail              `rel:"has_one,foreign_key:end_user_id"`
}

type UserEmail struct {
	ID        int    `rest:"id,primaryKey"`
	EndUserID int    `rest:"end_user_id"`
	Address   string `rest:"address"`
}
