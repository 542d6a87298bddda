// tokengen 为运维与联调签发 Access Token
//
//	go run ./cmd/tokengen -actor dispatcher@district -role dispatcher
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"busbuddy/config"
	"busbuddy/pkg/jwt"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径")
	actor := flag.String("actor", "", "审计操作人（写入 created_by / updated_by）")
	role := flag.String("role", jwt.RoleDispatcher, "角色: admin | dispatcher | viewer")
	ttl := flag.Duration("ttl", 0, "有效期，默认取 auth.access_token_ttl")
	flag.Parse()

	if *actor == "" {
		fmt.Fprintln(os.Stderr, "-actor 不能为空")
		os.Exit(2)
	}
	switch *role {
	case jwt.RoleAdmin, jwt.RoleDispatcher, jwt.RoleViewer:
	default:
		fmt.Fprintf(os.Stderr, "未知角色 %q\n", *role)
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	authCfg := cfg.Auth
	if *ttl > 0 {
		authCfg.AccessTokenTTL = *ttl
	}

	token, err := jwt.NewManager(&authCfg).GenerateAccessToken(*actor, *role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "签发失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires at %s\n", time.Now().Add(authCfg.AccessTokenTTL).UTC().Format(time.RFC3339))
}
