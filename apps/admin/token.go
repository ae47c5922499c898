package main

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	echoapi "github.com/MuhammadFarhanWebDeveloper/attendence-app/apps/api/echo"
)

func (cli *commandLine) token(subject, name, role, class string, ttl time.Duration) error {
	claims := echoapi.NewClaims(cli.conf, subject, name, role, class, ttl)
	if err := claims.Valid(); err != nil {
		return errors.Wrap(err, "invalid claims")
	}
	token, err := echoapi.GenerateToken(claims, cli.conf.SecretKey)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, token)
	return nil
}
