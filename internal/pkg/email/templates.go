package email

const reportDeliveryTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; line-height: 1.6; color: #333; margin: 0; padding: 0; background-color: #f5f5f5; }
        .container { max-width: 600px; margin: 0 auto; background: #ffffff; }
        .header { background: #4F46E5; padding: 30px; text-align: center; }
        .header h1 { color: #ffffff; margin: 0; font-size: 24px; }
        .content { padding: 40px 30px; }
        .report { background: #F9FAFB; padding: 20px; border-radius: 6px; margin: 20px 0; }
        .button { display: inline-block; padding: 14px 30px; background: #4F46E5; color: #ffffff; text-decoration: none; border-radius: 6px; font-weight: 600; margin: 20px 0; }
        .footer { padding: 30px; text-align: center; color: #666; font-size: 14px; background: #f9f9f9; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>{{.Title}}</h1>
        </div>
        <div class="content">
            <p>Hi {{.Name}},</p>
            <p>Your {{.Frequency}} report is ready:</p>
            <div class="report">{{.Content}}</div>
            <a href="{{.ReportsURL}}" class="button">View in {{.AppName}}</a>
        </div>
        <div class="footer">
            <p>Generated {{.GeneratedAt}} by {{.AppName}}.</p>
            <p>You can change your report schedule or turn off email delivery in your settings.</p>
        </div>
    </div>
</body>
</html>
`

const taskDigestTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; line-height: 1.6; color: #333; margin: 0; padding: 0; background-color: #f5f5f5; }
        .container { max-width: 600px; margin: 0 auto; background: #ffffff; }
        .header { background: #4F46E5; padding: 30px; text-align: center; }
        .header h1 { color: #ffffff; margin: 0; font-size: 24px; }
        .content { padding: 40px 30px; }
        .result { background: #F9FAFB; padding: 20px; border-radius: 6px; margin: 20px 0; }
        .button { display: inline-block; padding: 14px 30px; background: #4F46E5; color: #ffffff; text-decoration: none; border-radius: 6px; font-weight: 600; margin: 20px 0; }
        .footer { padding: 30px; text-align: center; color: #666; font-size: 14px; background: #f9f9f9; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>{{.Title}}</h1>
        </div>
        <div class="content">
            <p>Hi {{.Name}},</p>
            <p>Your scheduled task just ran. Here's the result:</p>
            <div class="result">{{.Content}}</div>
            <a href="{{.ChatURL}}" class="button">Open {{.AppName}}</a>
        </div>
        <div class="footer">
            <p>Sent by {{.AppName}}. Manage your scheduled tasks in your settings.</p>
        </div>
    </div>
</body>
</html>
`
