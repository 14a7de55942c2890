package report

import "strings"

const (
	successColor = "#2a9d8f"
	failureColor = "#e63946"
)

const stylesheet = `
    :root {
      --primary-color: {{primary}};
      --secondary-color: #457b9d;
      --background-color: #ffffff;
      --success-color: #2a9d8f;
      --warning-color: #e9c46a;
      --text-color: #1d3557;
      --light-text: #ffffff;
      --border-color: #a8dadc;
      --card-bg: #ffffff;
      --code-bg: #f8f9fa;
      --error-bg: #fff5f5;
      --error-text: #e63946;
      --success-bg: #f0fdf4;
      --success-text: #2a9d8f;
      --warning-bg: #fff7ed;
      --warning-text: #e9c46a;
    }
    body {
      font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif;
      line-height: 1.6;
      color: var(--text-color);
      background-color: var(--background-color);
      margin: 0;
      padding: 0;
    }
    .container {
      max-width: 800px;
      margin: 0 auto;
      padding: 20px;
      background-color: white;
      box-shadow: 0 0 10px rgba(0,0,0,0.1);
      text-align: center;
    }
    .header {
      background-color: var(--primary-color);
      color: var(--light-text);
      padding: 20px;
      text-align: center;
      border-radius: 5px 5px 0 0;
      margin-bottom: 20px;
    }
    .header h1 {
      margin: 0;
      font-size: 24px;
      color: var(--light-text);
    }
    .summary {
      background-color: var(--card-bg);
      padding: 15px;
      margin: 0 auto 20px;
      border-radius: 5px;
      border-left: 4px solid var(--secondary-color);
      box-shadow: 0 2px 4px rgba(0,0,0,0.05);
      max-width: 600px;
    }
    .summary-title {
      margin-bottom: 15px;
      color: var(--text-color);
    }
    .summary-grid {
      display: grid;
      grid-template-columns: repeat(4, 1fr);
      gap: 10px;
      margin-top: 15px;
    }
    .summary-card {
      padding: 10px;
      border-radius: 5px;
      box-shadow: 0 2px 4px rgba(0,0,0,0.05);
    }
    .summary-card h3 {
      margin: 0;
      font-size: 16px;
    }
    .summary-card .number {
      font-size: 28px;
      font-weight: bold;
      margin: 10px 0;
    }
    .failure-details, .success-details {
      text-align: left;
      margin: 0 auto;
      max-width: 800px;
    }
    .failure-details h2, .success-details h2 {
      text-align: center;
      margin-bottom: 20px;
    }
    .test-failure, .test-success {
      background-color: var(--card-bg);
      margin-bottom: 20px;
      padding: 15px;
      border-radius: 5px;
      border-left: 4px solid {{accent}};
      box-shadow: 0 2px 4px rgba(0,0,0,0.05);
    }
    .test-header {
      display: flex;
      justify-content: space-between;
      align-items: center;
      margin-bottom: 10px;
      border-bottom: 1px solid var(--border-color);
      padding-bottom: 10px;
    }
    .test-header h3 {
      margin: 0;
      color: {{accent}};
      font-size: 18px;
      text-align: left;
    }
    .test-meta {
      display: flex;
      gap: 8px;
    }
    .project-badge, .duration-badge {
      padding: 4px 8px;
      border-radius: 4px;
      font-size: 12px;
      color: var(--light-text);
    }
    .project-badge {
      background-color: var(--secondary-color);
    }
    .duration-badge {
      background-color: var(--text-color);
    }
    .test-path, .test-location, .rerun {
      margin-bottom: 8px;
      font-size: 14px;
      color: var(--text-color);
      text-align: left;
    }
    .rerun code {
      background-color: var(--code-bg);
      padding: 2px 4px;
      border-radius: 3px;
    }
    .label {
      font-weight: bold;
      color: var(--secondary-color);
    }
    .retry-info {
      background-color: var(--warning-bg);
      color: var(--warning-text);
      padding: 5px 10px;
      border-radius: 4px;
      display: inline-block;
      margin-bottom: 10px;
      font-size: 14px;
    }
    .error-section, .test-steps, .attachments-section {
      text-align: left;
      margin: 15px 0;
    }
    .error-section h4, .attachments-section h4 {
      margin-top: 0;
      margin-bottom: 8px;
      color: var(--secondary-color);
    }
    .error-message {
      margin: 10px 0;
      background-color: var(--error-bg);
      color: var(--error-text);
      padding: 10px;
      border-radius: 4px;
      white-space: pre-wrap;
      font-family: monospace;
      overflow-x: auto;
    }
    .highlight-red {
      color: #e63946;
      font-weight: bold;
    }
    .highlight-green {
      color: #2a9d8f;
      font-weight: bold;
    }
    .highlight {
      color: #457b9d;
      font-weight: bold;
    }
    .toggle {
      display: none;
    }
    .toggle-label {
      cursor: pointer;
      color: var(--secondary-color);
      font-size: 13px;
      text-decoration: underline;
    }
    .collapsible-content {
      max-height: 0;
      overflow: hidden;
    }
    .toggle:checked + .toggle-label + .collapsible-content {
      max-height: none;
    }
    .stack-trace {
      margin: 10px 0;
      background-color: var(--code-bg);
      padding: 10px;
      border-radius: 4px;
      white-space: pre-wrap;
      font-family: monospace;
      font-size: 12px;
      overflow-x: auto;
      color: var(--text-color);
    }
    .test-step {
      margin: 5px 0;
      padding: 8px;
      border-left: 3px solid var(--secondary-color);
      background-color: var(--code-bg);
      font-family: monospace;
      font-size: 13px;
      color: var(--text-color);
    }
    .screenshot, .video {
      margin: 15px 0;
    }
    .screenshot img, .video video {
      max-width: 100%;
      border: 1px solid var(--border-color);
      border-radius: 4px;
      box-shadow: 0 2px 4px rgba(0,0,0,0.1);
    }
    .video-link {
      margin: 10px 0;
      background-color: var(--code-bg);
      padding: 10px;
      border-radius: 4px;
      color: var(--text-color);
    }
    .footer {
      margin-top: 30px;
      padding-top: 15px;
      border-top: 1px solid var(--border-color);
      font-size: 12px;
      color: var(--text-color);
    }
    .footer p {
      margin: 5px 0;
    }
    .success-message {
      margin-bottom: 20px;
    }
    .success-message h2 {
      color: var(--success-color);
    }
    @media (max-width: 600px) {
      .summary-grid {
        grid-template-columns: repeat(2, 1fr);
      }
    }
`

var (
	successStyle = strings.NewReplacer("{{primary}}", successColor, "{{accent}}", "var(--success-color)").Replace(stylesheet)
	failureStyle = strings.NewReplacer("{{primary}}", failureColor, "{{accent}}", "var(--error-text)").Replace(stylesheet)
)
